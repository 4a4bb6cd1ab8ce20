package config

import (
	"os"
	"strconv"
)

const (
	smoothingOldWeightEnv = "TIMING_SMOOTHING_OLD_WEIGHT"
	digestHourEnv         = "TIMING_DIGEST_HOUR"

	defaultSmoothingOldWeight = 0.8
	defaultDigestHour         = 19
)

// TimingConfig tunes the learning filter and the evening digest slot.
type TimingConfig struct {
	SmoothingOldWeight float64
	DigestHour         int
}

func LoadTimingConfig() *TimingConfig {
	oldWeight := defaultSmoothingOldWeight
	if v := os.Getenv(smoothingOldWeightEnv); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed < 1 {
			oldWeight = parsed
		}
	}

	digestHour := defaultDigestHour
	if v := os.Getenv(digestHourEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= 23 {
			digestHour = parsed
		}
	}

	return &TimingConfig{
		SmoothingOldWeight: oldWeight,
		DigestHour:         digestHour,
	}
}
