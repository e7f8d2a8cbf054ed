package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/formfill/internal/api"
	"github.com/dgallion1/formfill/internal/config"
	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/pipeline"
	"github.com/dgallion1/formfill/internal/render"
	"github.com/dgallion1/formfill/internal/uploads"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the form assets once; every request shares them read-only.
	l, err := layout.LoadOrDefault(cfg.LayoutPath)
	if err != nil {
		log.Error("load layout", "error", err)
		os.Exit(1)
	}
	tpl, err := render.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		log.Error("load template", "path", cfg.TemplatePath, "error", err)
		os.Exit(1)
	}
	ps, err := l.PageSize()
	if err != nil {
		log.Error("layout page", "error", err)
		os.Exit(1)
	}
	render.CheckFit(log, tpl, ps)

	store, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir", "error", err)
		os.Exit(1)
	}

	proc := pipeline.NewProcessor(cfg, l, tpl, log)
	proc.Start(ctx)

	srv := api.NewServer(proc, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		proc.Stop()
	}()

	log.Info("starting formfill",
		"port", cfg.Port,
		"template", tpl.Name(),
		"template_kind", tpl.Kind(),
		"layout", l.Name,
		"fields", len(l.Fields),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
