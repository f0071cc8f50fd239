// apigatectl is the operator CLI for the gateway's maintenance mode.
// It talks directly to the shared Redis store, so changes are visible to
// every gateway worker immediately.
//
// Usage:
//
//	apigatectl enable [--message ...] [--reason ...] [--duration ...]
//	                  [--retry-after ...] [--end-time ...] [--progress ...]
//	apigatectl disable
//	apigatectl status
//	apigatectl progress --progress 60 [--message ...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/apigate/config"
	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/maintenance"
	"github.com/dmitrymomot/apigate/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		redisURL   string
		message    string
		reason     string
		duration   string
		retryAfter int
		progress   int
		endTime    string
	)

	flags := pflag.NewFlagSet("apigatectl", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	flags.StringVar(&redisURL, "redis-url", "", "redis connection URL (overrides the config file)")
	flags.StringVar(&message, "message", "", "message shown to denied clients")
	flags.StringVar(&reason, "reason", "", "operator-facing reason for the window")
	flags.StringVar(&duration, "duration", "", "estimated duration, e.g. \"2 hours\"")
	flags.IntVar(&retryAfter, "retry-after", 0, "Retry-After seconds sent with 503 responses")
	flags.IntVar(&progress, "progress", -1, "maintenance progress percentage [0,100]")
	flags.StringVar(&endTime, "end-time", "", "expected end time (RFC 3339)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	args := flags.Args()
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one command: enable, disable, status, or progress")
	}
	command := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if cfg.Redis.URL == "" {
		return fmt.Errorf("a redis URL is required; set --redis-url or the config file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	manager := maintenance.NewManager(
		flagstore.NewRedis[bool](client, nil, flagstore.WithPrefix("apigate")),
		flagstore.NewRedis[maintenance.State](client, nil, flagstore.WithPrefix("apigate")),
	)

	switch command {
	case "enable":
		state := maintenance.State{
			Message:           message,
			Reason:            reason,
			EstimatedDuration: duration,
			RetryAfter:        retryAfter,
		}
		if progress >= 0 {
			state.Progress = progress
		}
		if endTime != "" {
			t, err := time.Parse(time.RFC3339, endTime)
			if err != nil {
				return fmt.Errorf("parse --end-time: %w", err)
			}
			state.EndTime = t
		}
		if err := manager.Enable(ctx, state); err != nil {
			return err
		}
		fmt.Println("maintenance mode enabled")
		return printStatus(ctx, manager)

	case "disable":
		if err := manager.Disable(ctx); err != nil {
			return err
		}
		fmt.Println("maintenance mode disabled")
		return nil

	case "status":
		return printStatus(ctx, manager)

	case "progress":
		if progress < 0 {
			return fmt.Errorf("the progress command requires --progress")
		}
		if err := manager.UpdateProgress(ctx, progress, message); err != nil {
			return err
		}
		return printStatus(ctx, manager)

	default:
		return fmt.Errorf("unknown command %q: expected enable, disable, status, or progress", command)
	}
}

func printStatus(ctx context.Context, manager *maintenance.Manager) error {
	status, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	// Round-trip through JSON so the YAML keys match the API's field names.
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	var view map[string]any
	if err := json.Unmarshal(raw, &view); err != nil {
		return err
	}
	out, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
