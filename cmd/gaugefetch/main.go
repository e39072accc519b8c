package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaugefetch/gaugefetch/internal/config"
	"github.com/gaugefetch/gaugefetch/internal/expose"
	"github.com/gaugefetch/gaugefetch/internal/metric"
	"github.com/gaugefetch/gaugefetch/internal/scrape"
	"github.com/gaugefetch/gaugefetch/internal/sched"
	"github.com/gaugefetch/gaugefetch/internal/stream"
)

const streamInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	level, err := cfg.Level()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("gaugefetch starting",
		"config", *configPath,
		"address", cfg.Address,
		"targets", len(cfg.Targets),
	)
	if len(cfg.Targets) == 0 {
		slog.Warn("no targets configured — exposition will stay empty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Compile every target's rules up front. A rule that does not compile is
	// a configuration defect; refuse to start serving with it.
	store := metric.NewStore()
	pipeline := scrape.NewPipeline(store, nil)
	var targets []*scrape.Target
	for _, tc := range cfg.Targets {
		t, err := scrape.Setup(tc)
		if err != nil {
			slog.Error("setup failed", "err", err)
			os.Exit(1)
		}
		pipeline.Register(t)
		targets = append(targets, t)
	}

	// Bind before scraping anything so an occupied port fails fast.
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		slog.Error("failed to bind", "address", cfg.Address, "err", err)
		os.Exit(1)
	}

	if cfg.ScrapeOnStartup {
		slog.Info("initial scrape of all targets", "targets", len(targets))
		for _, t := range targets {
			before := store.Len()
			if err := pipeline.Scrape(ctx, t); err != nil {
				slog.Error("initial scrape failed", "err", err)
				os.Exit(1)
			}
			slog.Info("initial scrape done", "target", t.Name(), "series", store.Len()-before)
		}
	}

	scheduler := sched.New()
	for _, t := range targets {
		t := t
		err := scheduler.Add(t.Name(), t.Cron(), func() {
			if err := pipeline.Scrape(ctx, t); err != nil {
				slog.Error("scrape failed", "target", t.Name(), "err", err)
			}
		})
		if err != nil {
			slog.Error("invalid cron expression", "target", t.Name(), "cron", t.Cron(), "err", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// Watch the config file; targets are compiled once, so a reload only
	// surfaces through logs until a restart picks it up.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config changed on disk — restart to apply", "targets", len(updated.Targets))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	hub := stream.New(store, streamInterval)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", expose.NewHandler(store))
	mux.Handle("/stream", hub)

	httpSrv := &http.Server{Handler: mux}
	go func() {
		slog.Info("serving metrics", "address", cfg.Address)
		if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("gaugefetch shutting down")

	// Stop firing new scrapes, let in-flight ones and renders finish.
	<-scheduler.Stop().Done()
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
