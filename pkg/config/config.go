package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/reallocation"
	"github.com/travigo/trainrac/pkg/train"
)

const defaultOfferTTL = "PT1H"
const defaultListenAddress = ":8080"
const defaultTrainDefinition = "train.yaml"
const defaultArrivalsQueue = "/topic/trainrac.arrivals"

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// ParseOfferTTL reads an ISO 8601 duration such as PT1H
func ParseOfferTTL(value string) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, rail.NewValidationError("invalid offer TTL %q: %s", value, err)
	}

	reference := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := duration.Shift(reference).Sub(reference)
	if ttl <= 0 {
		return 0, rail.NewValidationError("offer TTL %q must be positive", value)
	}

	return ttl, nil
}

// TrainConfig builds the train configuration from TRAINRAC_ environment variables
func TrainConfig(env map[string]string) (train.Config, error) {
	ttlValue := defaultOfferTTL
	if env["TRAINRAC_OFFER_TTL"] != "" {
		ttlValue = env["TRAINRAC_OFFER_TTL"]
	}

	ttl, err := ParseOfferTTL(ttlValue)
	if err != nil {
		return train.Config{}, err
	}

	return train.Config{
		TrainNo:             env["TRAINRAC_TRAIN_NUMBER"],
		TrainName:           env["TRAINRAC_TRAIN_NAME"],
		OfferTTL:            ttl,
		BoardingAutoConfirm: env["TRAINRAC_BOARDING_VERIFICATION"] != "YES",
	}, nil
}

func ReallocationRules(env map[string]string) (reallocation.Rules, error) {
	rules := reallocation.Rules{
		RequireBoarded: env["TRAINRAC_REQUIRE_BOARDED"] == "YES",
	}

	if env["TRAINRAC_MIN_JOURNEY_KM"] != "" {
		km, err := strconv.Atoi(env["TRAINRAC_MIN_JOURNEY_KM"])
		if err != nil {
			return rules, rail.NewValidationError("invalid TRAINRAC_MIN_JOURNEY_KM: %s", err)
		}
		rules.MinJourneyKm = km
	}

	return rules, nil
}

// GroupStrategy returns the expression strategy when TRAINRAC_GROUP_PRIORITY is set, otherwise age priority
func GroupStrategy(env map[string]string) (reallocation.GroupStrategy, error) {
	if env["TRAINRAC_GROUP_PRIORITY"] == "" {
		return reallocation.NewAgePriorityStrategy(), nil
	}
	return reallocation.NewExprStrategy(env["TRAINRAC_GROUP_PRIORITY"])
}

func ListenAddress(env map[string]string) string {
	if env["TRAINRAC_LISTEN"] != "" {
		return env["TRAINRAC_LISTEN"]
	}
	return defaultListenAddress
}

func TrainDefinition(env map[string]string) string {
	if env["TRAINRAC_TRAIN_DEFINITION"] != "" {
		return env["TRAINRAC_TRAIN_DEFINITION"]
	}
	return defaultTrainDefinition
}

type AuthSettings struct {
	Domain   string
	Audience string

	// Disabled grants every request the TTE role
	Disabled bool
}

func Auth(env map[string]string) (AuthSettings, error) {
	if env["TRAINRAC_AUTH_DISABLED"] == "YES" {
		return AuthSettings{Disabled: true}, nil
	}

	settings := AuthSettings{
		Domain:   env["TRAINRAC_AUTH0_DOMAIN"],
		Audience: env["TRAINRAC_AUTH0_AUDIENCE"],
	}
	if settings.Domain == "" || settings.Audience == "" {
		return settings, rail.NewValidationError("TRAINRAC_AUTH0_DOMAIN and TRAINRAC_AUTH0_AUDIENCE must be set unless TRAINRAC_AUTH_DISABLED=YES")
	}

	return settings, nil
}

type ArrivalFeedSettings struct {
	Address   string
	Username  string
	Password  string
	QueueName string
}

// ArrivalFeed reports whether a STOMP arrival feed is configured
func ArrivalFeed(env map[string]string) (ArrivalFeedSettings, bool) {
	if env["TRAINRAC_STOMP_ADDRESS"] == "" {
		return ArrivalFeedSettings{}, false
	}

	settings := ArrivalFeedSettings{
		Address:   env["TRAINRAC_STOMP_ADDRESS"],
		Username:  env["TRAINRAC_STOMP_USERNAME"],
		Password:  env["TRAINRAC_STOMP_PASSWORD"],
		QueueName: env["TRAINRAC_STOMP_QUEUE"],
	}
	if settings.QueueName == "" {
		settings.QueueName = defaultArrivalsQueue
	}

	return settings, true
}
