// Package config handles configuration for the server component:
// defaults, an optional .env file, environment variables, a JSON overlay
// and command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the ChatBook server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API and the chat websocket endpoint.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory stores.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - RevokeRotatedRefreshTokens: keep a revocation list so a rotated refresh token stops working.
//   - CloseSupersededSessions: close the older socket when a user reconnects.
//   - WriteTimeout: deadline for a single push to a session.
//   - MaxFrameBytes / MaxContentLength: inbound frame size and message length limits.
//   - LogLevel: debug, info, warn or error.
//   - AllowedOrigins: value of Access-Control-Allow-Origin.
type Config struct {
	EndpointAddrHTTP             string        `envconfig:"HTTP_ADDR"`
	EndpointAddrGRPC             string        `envconfig:"GRPC_ADDR"`
	DatabaseDSN                  string        `envconfig:"DATABASE_DSN"`
	SecretKey                    string        `envconfig:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `envconfig:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `envconfig:"REFRESH_TOKEN_TTL"`
	RevokeRotatedRefreshTokens   bool          `envconfig:"REVOKE_ROTATED_REFRESH_TOKENS"`
	CloseSupersededSessions      bool          `envconfig:"CLOSE_SUPERSEDED_SESSIONS"`
	WriteTimeout                 time.Duration `envconfig:"WRITE_TIMEOUT"`
	MaxFrameBytes                int64         `envconfig:"MAX_FRAME_BYTES"`
	MaxContentLength             int           `envconfig:"MAX_CONTENT_LENGTH"`
	LogLevel                     string        `envconfig:"LOG_LEVEL"`
	AllowedOrigins               string        `envconfig:"ALLOWED_ORIGINS"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey matches the well-known development value and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "supersecretkey"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.RevokeRotatedRefreshTokens = false
	c.CloseSupersededSessions = true
	c.WriteTimeout = 10 * time.Second
	c.MaxFrameBytes = 64 << 10
	c.MaxContentLength = 4096
	c.LogLevel = "info"
	c.AllowedOrigins = "*"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("secret key must not be empty")
	case c.AccessTokenValidityDuration <= 0:
		return fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration)
	case c.RefreshTokenValidityDuration <= 0:
		return fmt.Errorf("refresh token validity must be positive, got %s", c.RefreshTokenValidityDuration)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write timeout must be positive, got %s", c.WriteTimeout)
	case c.MaxFrameBytes <= 0:
		return fmt.Errorf("max frame bytes must be positive, got %d", c.MaxFrameBytes)
	case c.MaxContentLength <= 0:
		return fmt.Errorf("max content length must be positive, got %d", c.MaxContentLength)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from .env and the environment, an optional JSON file and finally
// command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
