package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal/config"
	"github.com/scythe504/skribblr-party/internal/game"
	"github.com/scythe504/skribblr-party/internal/logger"
	"github.com/scythe504/skribblr-party/internal/questions"
	"github.com/scythe504/skribblr-party/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource := questionSource(ctx, cfg)
	defer closeSource()

	hub := game.NewHub(src, game.Options{
		MaxRounds:     cfg.MaxRounds,
		RoundSeconds:  cfg.RoundSeconds,
		RoundLease:    time.Duration(cfg.RoundLeaseSeconds) * time.Second,
		FallbackScore: game.RandomFallback(cfg.FallbackScoreMin, cfg.FallbackScoreMax),
		RelayRate:     cfg.RelayRate,
		RelayBurst:    cfg.RelayBurst,
	})
	go hub.Run(ctx)

	srv := server.NewServer(cfg, hub)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("questions", cfg.QuestionSource).Msg("skribblr-party server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// questionSource builds the configured source. Anything other than the static
// list falls back to it when the primary fails.
func questionSource(ctx context.Context, cfg config.Config) (questions.Source, func()) {
	static := questions.NewStaticSource(nil, cfg.QuestionPoolSize)

	switch cfg.QuestionSource {
	case "csv":
		csvSource, err := questions.NewCSVSource(cfg.QuestionsCSVPath, cfg.QuestionPoolSize)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.QuestionsCSVPath).Msg("csv question source unavailable, using static list")
			return static, func() {}
		}
		return questions.WithFallback(csvSource, static), func() {}

	case "postgres":
		pg, err := questions.NewPostgresSource(ctx, cfg.DatabaseURL, cfg.QuestionPoolSize)
		if err != nil {
			log.Warn().Err(err).Msg("postgres question source unavailable, using static list")
			return static, func() {}
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure questions schema")
		}
		return questions.WithFallback(pg, static), pg.Close

	default:
		return static, func() {}
	}
}
