package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/CodeRoom/internal/adapters/http"
	wsignal "github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/assist"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/history"
	"github.com/dkeye/CodeRoom/internal/logging"
	"github.com/dkeye/CodeRoom/internal/sandbox"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Console logging until the config says otherwise.
	logging.Init("info", true)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := history.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open commit store: %w", err)
	}
	defer store.Close()

	cache := history.NoopCache()
	if cfg.Redis.Address != "" {
		rc, err := history.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unavailable, history cache disabled")
		} else {
			cache = rc
		}
	}
	defer cache.Close()

	commits := history.NewService(store, cache)
	runner := sandbox.NewRunner(cfg.Exec.Sandbox())

	o := orch.New(app.NewRegistry(), core.NewRoomRegistry(), app.SimplePolicy{}, runner, commits)
	ctl := wsignal.NewSignalWSController(ctx, o, wsignal.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		SendBuffer:     cfg.SendBuffer,
		RateLimit:      cfg.Rate.Limit,
		RateInterval:   cfg.Rate.Interval,
	})

	r := router.SetupRouter(cfg, router.Deps{
		Signal:  ctl,
		History: commits,
		Assist:  assist.NewGeminiClient(cfg.AI),
		Rooms:   o,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("CodeRoom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		// Root ctx is done, so in-flight runs are being killed; wait for their cleanup.
		runner.Wait()
		return nil
	})
	return g.Wait()
}
