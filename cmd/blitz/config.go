package main

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/multierr"

	"github.com/vlarkus/blitz/model"
)

// engineConfigFromEnv starts from model.DefaultConfig and applies the
// BLITZ_* overrides that are set. Every malformed value is reported.
func engineConfigFromEnv() (model.Config, error) {
	cfg := model.DefaultConfig()
	var errs error

	intVar := func(name string, dst *int) {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}
	floatVar := func(name string, dst *float64) {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = v
	}

	intVar("BLITZ_MIN_SEGMENTS", &cfg.MinNumSegments)
	intVar("BLITZ_MAX_SEGMENTS", &cfg.MaxNumSegments)
	intVar("BLITZ_DEFAULT_SEGMENTS", &cfg.DefaultNumSegments)
	floatVar("BLITZ_MIN_TIME", &cfg.MinTime)
	floatVar("BLITZ_MIN_SPEED", &cfg.DefaultMinSpeed)
	floatVar("BLITZ_MAX_SPEED", &cfg.DefaultMaxSpeed)
	floatVar("BLITZ_MIN_BENT_RATE", &cfg.DefaultMinBentRate)
	floatVar("BLITZ_MAX_BENT_RATE", &cfg.DefaultMaxBentRate)

	if errs != nil {
		return model.Config{}, errs
	}
	return cfg.ApplyDefaults(), nil
}
