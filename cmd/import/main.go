// Command import loads a legacy report export into the configured report store
// and bumps the shared report-set version in Redis so running servers pick it up.
//
//	import -file reports.json [-dry-run] [-skip-cache]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CLillis357/VigilantIE/internal/components"
	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/internal/importer"
	"github.com/CLillis357/VigilantIE/internal/redis"
)

func main() {
	file := flag.String("file", "", "path to the legacy JSON export (reads stdin when empty)")
	dryRun := flag.Bool("dry-run", false, "validate and count without writing")
	skipCache := flag.Bool("skip-cache", false, "do not bump the report version in Redis")
	flag.Parse()

	if err := run(*file, *dryRun, *skipCache); err != nil {
		os.Exit(1)
	}
}

func run(file string, dryRun, skipCache bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadStore()
	if err != nil {
		components.SetupLogger("local").Error("load config failed", slog.Any("error", err))
		return err
	}
	logger := components.SetupLogger(cfg.Env)

	in := os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			logger.Error("open export failed", slog.String("file", file), slog.Any("error", err))
			return err
		}
		defer f.Close()
		in = f
	}

	store, err := components.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open report store failed", slog.Any("error", err))
		return err
	}
	defer store.Close()

	var version importer.VersionBumper
	if !dryRun && !skipCache {
		rdb, err := redis.NewRedis(ctx, cfg, logger)
		if err != nil {
			logger.Error("connect redis failed, rerun with -skip-cache when no server shares this store", slog.Any("error", err))
			return err
		}
		defer rdb.Close()
		version = redis.NewReportCache(rdb.Client, cfg.Cache.TTL)
	}

	if _, err := importer.New(store, version, logger, dryRun).Run(ctx, in); err != nil {
		logger.Error("import failed", slog.Any("error", err))
		return err
	}
	return nil
}
