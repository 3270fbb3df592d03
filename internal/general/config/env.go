package config

import (
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "RIDEHAIL_"

// applyEnv overrides file values with RIDEHAIL_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("IDENTITY_ID", &cfg.Identity.ID)
	str("IDENTITY_ROLE", &cfg.Identity.Role)
	str("BROKER_KIND", &cfg.Broker.Kind)
	str("BROKER_URL", &cfg.Broker.URL)
	str("BROKER_USERNAME", &cfg.Broker.Username)
	str("API_BASE_URL", &cfg.API.BaseURL)
	str("API_TOKEN", &cfg.API.Token)
	dur("API_TIMEOUT", &cfg.API.Timeout)
	dur("CREDENTIAL_REFRESH_INTERVAL", &cfg.Credential.RefreshInterval)
	boolean("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	str("JOURNAL_PASSWORD", &cfg.Journal.Password)
	str("TELEMETRY_LISTEN_ADDR", &cfg.Telemetry.ListenAddr)
	boolean("TELEMETRY_TRACE_STDOUT", &cfg.Telemetry.TraceStdout)
	str("JWT_SECRET_KEY", &cfg.JWT.SecretKey)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
