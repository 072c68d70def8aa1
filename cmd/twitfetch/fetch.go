package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"twitfetch/internal/adapters/web"
	"twitfetch/internal/config"
	"twitfetch/internal/domain"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"
)

func newFetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "fetch posts from an account or list",
		ArgsUsage: "<handle | profile URL | list URL | list:ID>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "api", Usage: "dom or api"},
			&cli.StringFlag{Name: "start", Usage: "earliest day to include, YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Usage: "latest day to include, YYYY-MM-DD"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write JSON to this file instead of stdout"},
			&cli.StringFlag{Name: "dump", Usage: "directory for raw payload and result dumps"},
			&cli.BoolFlag{Name: "raw", Usage: "print raw timeline payloads instead of posts"},
		},
		Action: runFetch,
	}
}

func runFetch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("fetch needs exactly one target", 2)
	}
	target, err := web.ParseTarget(c.Args().First())
	if err != nil {
		return err
	}
	window, err := domain.NewTimeWindow(c.String("start"), c.String("end"))
	if err != nil {
		return err
	}
	mode, err := usecases.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	rt, err := setup(c, func(cfg *config.Config) {
		if dir := c.String("dump"); dir != "" {
			cfg.DumpDir = dir
		}
	})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := signalContext(c.Context)
	defer cancel()
	ctx = log.WithRunID(ctx)

	var result any
	if c.Bool("raw") {
		payloads, err := rt.engine.Fetch.FetchRawTimeline(ctx, target, window)
		if err != nil {
			return err
		}
		raw := make([]json.RawMessage, len(payloads))
		for i, p := range payloads {
			raw[i] = p
		}
		result = raw
	} else {
		posts, err := fetchPosts(ctx, rt.engine.Fetch, target, window, mode)
		if err != nil {
			return err
		}
		if rt.engine.Store != nil {
			path, err := rt.engine.Store.SavePosts(target, posts)
			if err != nil {
				return err
			}
			log.GlobalInfoCtx(ctx, "posts saved", "path", path)
		}
		result = posts
	}

	return writeJSON(c.String("out"), c.App.Writer, result)
}

// fetchPosts runs one collection in the requested mode.
func fetchPosts(ctx context.Context, f usecases.PostFetcher, target domain.Target, window domain.TimeWindow, mode usecases.Mode) ([]domain.Post, error) {
	switch mode {
	case usecases.ModeDOM:
		if target.Kind != domain.TargetAccount {
			return nil, fmt.Errorf("%w: dom mode needs an account", domain.ErrInvalidTarget)
		}
		return f.FetchByDOMScrolling(ctx, target.ID, window)
	default:
		return f.FetchByAPIInterception(ctx, target, window)
	}
}

// writeJSON writes v indented to path, or to w when path is empty.
func writeJSON(path string, w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
