package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal/config"
	"github.com/scythe504/skribblr-party/internal/logger"
	"github.com/scythe504/skribblr-party/internal/questions"
)

func main() {
	filePath := flag.String("file", "", "path to words csv (defaults to QUESTIONS_CSV_PATH)")
	schema := flag.Bool("schema", true, "create the questions table if missing")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if *filePath == "" {
		*filePath = cfg.QuestionsCSVPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src, err := questions.NewPostgresSource(ctx, cfg.DatabaseURL, cfg.QuestionPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer src.Close()

	if *schema {
		if err := src.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create questions table")
		}
	}

	words, err := questions.ReadCsvFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("failed to read words")
	}
	contents := make([]string, 0, len(words))
	for _, w := range words {
		contents = append(contents, w.Text)
	}

	inserted, err := src.Seed(ctx, contents...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed questions")
	}
	log.Info().Int("read", len(words)).Int("inserted", inserted).Msg("loaded questions")
}
