package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chatbook/internal/flagx"
	"github.com/dmitrijs2005/chatbook/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept "30m"-style strings or integer nanoseconds, and every
// field is optional: only keys present in the file override the config.
type JsonConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RevokeRotatedRefreshTokens   *bool           `json:"revoke_rotated_refresh_tokens"`
	CloseSupersededSessions      *bool           `json:"close_superseded_sessions"`
	WriteTimeout                 *timex.Duration `json:"write_timeout"`
	MaxFrameBytes                int64           `json:"max_frame_bytes"`
	MaxContentLength             int             `json:"max_content_length"`
	LogLevel                     string          `json:"log_level"`
	AllowedOrigins               string          `json:"allowed_origins"`
}

// parseJson overlays the file named by -c/-config onto config.
// Without the flag nothing happens; an unreadable or malformed file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.AllowedOrigins, c.AllowedOrigins)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.WriteTimeout != nil {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	if c.RevokeRotatedRefreshTokens != nil {
		config.RevokeRotatedRefreshTokens = *c.RevokeRotatedRefreshTokens
	}
	if c.CloseSupersededSessions != nil {
		config.CloseSupersededSessions = *c.CloseSupersededSessions
	}
	if c.MaxFrameBytes > 0 {
		config.MaxFrameBytes = c.MaxFrameBytes
	}
	if c.MaxContentLength > 0 {
		config.MaxContentLength = c.MaxContentLength
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
