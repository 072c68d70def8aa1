package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/urfave/cli/v2"

	"twitfetch/internal/adapters/cache"
	"twitfetch/internal/adapters/web"
	"twitfetch/internal/app"
	"twitfetch/internal/config"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "twitfetch-server",
		Usage: "serve collected posts over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"TWITFETCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "listen port, overrides server.port and PORT",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			logger, err := app.SetupLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer logger.Close()

			if err := run(c.Context, cfg); err != nil {
				log.GlobalError("server stopped", "error", err.Error())
				return err
			}
			return nil
		},
	}
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if port := c.String("port"); port != "" {
		cfg.Server.Port = port
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if !cfg.HasCredentials() {
		log.GlobalWarn("no credentials configured, fetches will fail at login")
	}

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	postCache := cache.NewMemoryCache(cfg.Server.CacheTTL)
	defer postCache.Close()

	getTweets := usecases.NewGetTweetsUseCase(postCache, engine.Fetch)

	handlers := web.NewHandlers(getTweets, engine.Session, 10*time.Minute)
	rateLimiter := web.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	defer rateLimiter.Close()

	fiberApp := fiber.New(fiber.Config{
		AppName:      "twitfetch",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 11 * time.Minute,
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(requestid.New(web.RequestIDConfig()))
	fiberApp.Use(web.RequestIDToContextMiddleware())
	fiberApp.Use(web.RequestLoggerMiddleware())

	web.SetupRoutes(fiberApp, handlers, rateLimiter)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.GlobalInfo("starting twitfetch", "port", cfg.Server.Port)
		errCh <- fiberApp.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.GlobalInfo("shutting down")
		return fiberApp.ShutdownWithTimeout(15 * time.Second)
	}
}
