package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/adapters/broker"
	router "github.com/venlink/huddle/internal/adapters/http"
	sigadapter "github.com/venlink/huddle/internal/adapters/signal"
	"github.com/venlink/huddle/internal/adapters/store"
	"github.com/venlink/huddle/internal/app"
	"github.com/venlink/huddle/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	rdb, err := broker.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connect")
	}
	defer rdb.Close()

	pg, err := store.NewPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect")
	}
	defer pg.Close()

	rooms := app.NewRoomManager()
	registry := app.NewRegistry(rdb)
	hub := app.NewHub(rdb, rooms)
	presence := app.NewPresence(pg)
	limiter := sigadapter.NewEventRateLimiter(cfg.EventRate, cfg.EventWindow)

	// Entries from a previous process generation are meaningless; flush them
	// before the listener accepts connections.
	registry.SweepStale(ctx)

	go hub.Run(ctx)

	ctrl := sigadapter.NewSignalWSController(registry, rooms, hub, presence, pg, limiter)
	ctrl.ReadLimit = cfg.ReadLimit
	ctrl.PingPeriod = cfg.PingPeriod
	r := router.SetupRouter(ctx, cfg, ctrl, rooms, rdb)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
