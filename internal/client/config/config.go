// Package config holds the settings of the chat CLI client.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/flagx"
)

// Config holds runtime settings for the ChatBook CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API, e.g. http://127.0.0.1:8000.
//   - HealthAddr: host:port of the gRPC health endpoint.
//   - OnlineCheckInterval: how often the client probes server health.
type Config struct {
	ServerURL           string
	HealthAddr          string
	OnlineCheckInterval time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 5 * time.Second
}

// LoadConfig applies defaults and then the command-line flags in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseFlags understands:
//
//	-a string   HTTP API base URL
//	-g string   gRPC health address
//	-i duration online check interval
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-i"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "HTTP API base URL")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "gRPC health endpoint address")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", cfg.OnlineCheckInterval)
	}
	return nil
}
