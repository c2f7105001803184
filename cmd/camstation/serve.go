package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	httpx "github.com/JacobGitz/Amscope-Docker/internal/http"
	"github.com/JacobGitz/Amscope-Docker/internal/service/catalog"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
	"github.com/JacobGitz/Amscope-Docker/pkg/logger"
)

func commandServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from CAMSTATION_ADDR)")
	fs.Parse(args)

	cfg := config.LoadStation()
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := logger.New("camstation", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli, err := newDocker(cfg)
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := cli.Ping(ctx); err != nil {
		log.Error("docker ping failed", "error", err)
		os.Exit(1)
	}

	router := httpx.New(log, catalog.New(cfg), cli, cfg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("station server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("station server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
