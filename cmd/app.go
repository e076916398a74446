package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/CLillis357/VigilantIE/internal/components"
	"github.com/CLillis357/VigilantIE/internal/config"
)

func Run() error {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(appCtx)
	if err != nil {
		components.SetupLogger("local").Error("load config failed", slog.Any("error", err))
		return err
	}
	logger := components.SetupLogger(cfg.Env)

	comps, err := components.InitComponents(appCtx, cfg, logger)
	if err != nil {
		logger.Error("could not init components", slog.Any("error", err))
		return err
	}

	ctx, stop := context.WithCancel(appCtx)
	defer stop()

	var wg sync.WaitGroup
	run := func(name string, fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			logger.Info("stopped", slog.String("component", name))
		}()
	}

	run("http server", func(ctx context.Context) {
		if err := comps.HttpServer.Run(ctx); err != nil {
			logger.Error("http server failed", slog.Any("error", err))
			stop()
		}
	})
	run("websocket hub", comps.Hub.Run)
	run("alert dispatcher", comps.Dispatcher.Run)
	run("report refresher", comps.Refresher.Run)

	if comps.Subscriber != nil {
		if err := comps.Subscriber.Start(ctx); err != nil {
			logger.Error("mqtt subscriber failed", slog.Any("error", err))
			stop()
		}
	}

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quitChan:
		logger.Info("captured signal, initiating shutdown", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("component failure, initiating shutdown")
	}
	stop()

	wg.Wait()

	logger.Info("shutting down the services...")
	comps.ShutdownAll()
	logger.Info("gracefully shut down")

	return nil
}
