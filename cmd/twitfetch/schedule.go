package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"twitfetch/internal/adapters/storage"
	"twitfetch/internal/adapters/web"
	"twitfetch/internal/config"
	"twitfetch/internal/domain"
	"twitfetch/internal/scheduler"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"
)

const defaultDumpDir = "dumps"

func newScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "fetch targets repeatedly on a cron schedule, writing timestamped dumps",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "target", Aliases: []string{"t"}, Usage: "target to fetch, repeatable; defaults to schedule.targets"},
			&cli.StringFlag{Name: "spec", Usage: "cron schedule, defaults to schedule.spec"},
			&cli.StringFlag{Name: "mode", Usage: "dom or api, defaults to schedule.mode"},
			&cli.IntFlag{Name: "days", Usage: "days back each run covers, defaults to schedule.days"},
			&cli.StringFlag{Name: "dump", Usage: "output directory, defaults to dump_dir or ./dumps"},
			&cli.BoolFlag{Name: "now", Usage: "run every job once before waiting for the schedule"},
		},
		Action: runSchedule,
	}
}

func runSchedule(c *cli.Context) error {
	rt, err := setup(c, func(cfg *config.Config) {
		if c.IsSet("spec") {
			cfg.Schedule.Spec = c.String("spec")
		}
		if c.IsSet("mode") {
			cfg.Schedule.Mode = c.String("mode")
		}
		if c.IsSet("days") {
			cfg.Schedule.Days = c.Int("days")
		}
		if c.IsSet("target") {
			cfg.Schedule.Targets = c.StringSlice("target")
		}
		if dir := c.String("dump"); dir != "" {
			cfg.DumpDir = dir
		}
		if cfg.DumpDir == "" {
			cfg.DumpDir = defaultDumpDir
		}
	})
	if err != nil {
		return err
	}
	defer rt.close()

	sc := rt.cfg.Schedule
	mode, err := usecases.ParseMode(sc.Mode)
	if err != nil {
		return err
	}
	if len(sc.Targets) == 0 {
		return cli.Exit("schedule needs at least one target", 2)
	}

	s, err := scheduler.New(sc.Timezone, sc.Timeout)
	if err != nil {
		return err
	}

	jobs := make(map[string]scheduler.Job, len(sc.Targets))
	for _, raw := range sc.Targets {
		target, err := web.ParseTarget(raw)
		if err != nil {
			return err
		}
		job := fetchJob(rt.engine.Fetch, rt.engine.Store, target, mode, sc.Days)
		name := jobName(target)
		if err := s.AddJob(name, sc.Spec, job); err != nil {
			return err
		}
		jobs[name] = job
	}

	if c.Bool("now") {
		for name, job := range jobs {
			if err := s.RunNow(name, job); err != nil {
				log.GlobalWarn("initial run failed", "job", name, "error", err.Error())
			}
		}
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	s.Start()
	for _, j := range s.ListJobs() {
		log.GlobalInfo("next run", "job", j.Name, "at", j.NextRun.Format(time.RFC3339))
	}
	<-ctx.Done()

	<-s.Stop().Done()
	return nil
}

func jobName(target domain.Target) string {
	return strings.ReplaceAll(target.String(), ":", "-")
}

// fetchJob collects the trailing days of target and saves the result.
func fetchJob(f usecases.PostFetcher, store *storage.JSONStore, target domain.Target, mode usecases.Mode, days int) scheduler.Job {
	return func(ctx context.Context) error {
		window := trailingWindow(time.Now(), days)
		posts, err := fetchPosts(ctx, f, target, window, mode)
		if err != nil {
			return err
		}
		path, err := store.SavePosts(target, posts)
		if err != nil {
			return fmt.Errorf("save %s: %w", target, err)
		}
		log.GlobalInfoCtx(ctx, "posts saved", "target", target.String(), "posts", len(posts), "path", path)
		return nil
	}
}

// trailingWindow covers the last days days up to and including now's date.
func trailingWindow(now time.Time, days int) domain.TimeWindow {
	if days < 1 {
		days = 1
	}
	end := now.UTC()
	start := end.AddDate(0, 0, -(days - 1))
	w, _ := domain.NewTimeWindow(start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	return w
}
