package config

import (
	"fmt"
	"strings"
	"time"
)

// JWTConfig configures bearer token verification against a JWKS endpoint.
type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string

	ClockSkew time.Duration
	// JWKSRefreshInterval re-fetches the key set even while every kid is known, so rotated keys drop out.
	JWKSRefreshInterval time.Duration
	// JWKSMinRefreshInterval rate-limits fetches triggered by unknown kids.
	JWKSMinRefreshInterval time.Duration

	HTTPTimeout time.Duration
}

// LoadJWTConfigFromEnv reads the JWT_* variables. Issuer, audience and JWKS URL are required.
func LoadJWTConfigFromEnv() (JWTConfig, error) {
	cfg := JWTConfig{
		Issuer:   getenv("JWT_ISSUER", ""),
		Audience: getenv("JWT_AUDIENCE", ""),
		JWKSURL:  getenv("JWT_JWKS_URL", ""),
	}

	var missing []string
	for _, kv := range [][2]string{
		{"JWT_ISSUER", cfg.Issuer},
		{"JWT_AUDIENCE", cfg.Audience},
		{"JWT_JWKS_URL", cfg.JWKSURL},
	} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return JWTConfig{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.ClockSkew, err = getduration("JWT_CLOCK_SKEW", 30*time.Second); err != nil {
		return JWTConfig{}, err
	}
	if cfg.JWKSRefreshInterval, err = getduration("JWT_JWKS_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return JWTConfig{}, err
	}
	if cfg.JWKSMinRefreshInterval, err = getduration("JWT_JWKS_MIN_REFRESH_INTERVAL", 10*time.Second); err != nil {
		return JWTConfig{}, err
	}
	if cfg.HTTPTimeout, err = getduration("JWT_HTTP_TIMEOUT", 5*time.Second); err != nil {
		return JWTConfig{}, err
	}
	return cfg, nil
}
