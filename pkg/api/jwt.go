package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/api/routes"
)

// CustomClaims carries the space separated scope granting a trainrac role
type CustomClaims struct {
	Scope string `json:"scope"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// RoleFromScope picks the most privileged role named in the scope
func RoleFromScope(scope string) (routes.Role, bool) {
	var role routes.Role
	found := false

	for _, value := range strings.Fields(scope) {
		switch routes.Role(value) {
		case routes.RoleTTE:
			return routes.RoleTTE, true
		case routes.RolePassenger:
			role = routes.RolePassenger
			found = true
		}
	}

	return role, found
}

type tokenValidator func(ctx context.Context, token string) (interface{}, error)

// EnsureValidToken checks auth0 issued JWTs and resolves the caller's role
func EnsureValidToken(domain string, audience string) (fiber.Handler, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("setting up jwt validator: %w", err)
	}

	return tokenHandler(jwtValidator.ValidateToken), nil
}

func tokenHandler(validate tokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !found || token == "" {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"error": "Authorization header is required",
			})
		}

		claimsI, err := validate(c.UserContext(), token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected auth token")

			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"error": "Invalid auth token",
			})
		}

		claims := claimsI.(*validator.ValidatedClaims)

		var role routes.Role
		if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok {
			role, found = RoleFromScope(customClaims.Scope)
		} else {
			found = false
		}
		if !found {
			c.SendStatus(fiber.StatusForbidden)
			return c.JSON(fiber.Map{
				"error": "Auth token does not grant a trainrac role",
			})
		}

		c.Locals("account_userid", claims.RegisteredClaims.Subject)
		routes.SetRole(c, role)

		return c.Next()
	}
}

// StaticRole grants every request the same role, for running without auth0
func StaticRole(role routes.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes.SetRole(c, role)
		return c.Next()
	}
}
