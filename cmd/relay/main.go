package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/dinedecide/internal/config"
	"github.com/DoyleJ11/dinedecide/internal/httpapi"
	"github.com/DoyleJ11/dinedecide/internal/hub"
	"github.com/DoyleJ11/dinedecide/internal/logging"
	"github.com/DoyleJ11/dinedecide/internal/ws"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, log)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, ws.Options{
		PingInterval: cfg.Relay.PingInterval,
		PeerBuffer:   cfg.Relay.PeerBuffer,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Relay.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("relay listening", zap.String("addr", cfg.Relay.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down relay")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("relay stopped", zap.Error(err))
	}
	log.Info("relay stopped")
}
