package config

import (
	"os"
	"strconv"
)

const (
	pushGatewayURLEnv = "PUSH_GATEWAY_URL"
	pushMaxRetriesEnv = "PUSH_MAX_RETRIES"

	defaultPushMaxRetries = 3
)

// DeliveryConfig points at the push gateway. An empty URL selects the noop
// client, which only logs deliveries.
type DeliveryConfig struct {
	PushGatewayURL string
	MaxRetries     int
}

func LoadDeliveryConfig() *DeliveryConfig {
	maxRetries := defaultPushMaxRetries
	if v := os.Getenv(pushMaxRetriesEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxRetries = parsed
		}
	}

	return &DeliveryConfig{
		PushGatewayURL: os.Getenv(pushGatewayURLEnv),
		MaxRetries:     maxRetries,
	}
}
