// Package introhub parses introductions service flags and launches the service.
package introhub

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/introhub/internal/platform/cmd"
	server "github.com/louisbranch/introhub/internal/services/introductions/app"
)

// Config holds introhub command configuration.
type Config struct {
	Port int `env:"INTROHUB_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The introductions HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the introductions HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceIntrohub, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
