package routes

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"
)

type Role string

const (
	RoleTTE       Role = "tte"
	RolePassenger Role = "passenger"
)

const roleLocal = "account_role"

func SetRole(c *fiber.Ctx, role Role) {
	c.Locals(roleLocal, role)
}

func CurrentRole(c *fiber.Ctx) Role {
	role, _ := c.Locals(roleLocal).(Role)
	return role
}

// RequireRole rejects requests whose resolved role is not one of roles
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if slices.Contains(roles, CurrentRole(c)) {
			return c.Next()
		}

		c.SendStatus(fiber.StatusForbidden)
		return c.JSON(fiber.Map{
			"error": "Insufficient role for this action",
		})
	}
}

// sheriff groups visible to a role. Passengers never see berth segments or ages of other travellers.
func groupsFor(role Role) []string {
	if role == RoleTTE {
		return []string{"basic", "detailed"}
	}
	return []string{"basic"}
}
