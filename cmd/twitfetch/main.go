package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"twitfetch/internal/app"
	"twitfetch/internal/config"
	"twitfetch/pkg/log"
)

func main() {
	cliApp := &cli.App{
		Name:  "twitfetch",
		Usage: "collect posts from account and list timelines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"TWITFETCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or console",
				Value: "console",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "trace, debug, info, warn or error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			newFetchCommand(),
			newLoginCommand(),
			newScheduleCommand(),
		},
		Version: "0.1.0",
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runtime is what every command needs: configuration, logging and a
// running engine.
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
	engine *app.Engine
}

// setup loads configuration and starts the engine. The caller must call
// close.
func setup(c *cli.Context, adjust func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.Log.Format = c.String("log-format")
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if adjust != nil {
		adjust(cfg)
	}

	logger, err := app.SetupLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	engine, err := app.NewEngine(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, engine: engine}, nil
}

func (r *runtime) close() {
	if err := r.engine.Close(); err != nil {
		log.GlobalWarn("browser close failed", "error", err.Error())
	}
	r.logger.Close()
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
