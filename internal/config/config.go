package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port              int
	AllowedOrigins    []string
	LogLevel          string
	LogPretty         bool
	QuestionSource    string
	QuestionsCSVPath  string
	DatabaseURL       string
	QuestionPoolSize  int
	MaxRounds         int
	RoundSeconds      int
	RoundLeaseSeconds int
	FallbackScoreMin  int
	FallbackScoreMax  int
	RelayRate         int
	RelayBurst        int
}

func Default() Config {
	return Config{
		Port:              8080,
		AllowedOrigins:    []string{"*"},
		LogLevel:          "info",
		LogPretty:         true,
		QuestionSource:    "static",
		QuestionsCSVPath:  "words.csv",
		QuestionPoolSize:  10,
		MaxRounds:         3,
		RoundSeconds:      60,
		RoundLeaseSeconds: 0,
		FallbackScoreMin:  10,
		FallbackScoreMax:  30,
		RelayRate:         120,
		RelayBurst:        240,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Port = value
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	if raw := os.Getenv("QUESTION_SOURCE"); raw != "" {
		cfg.QuestionSource = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("QUESTIONS_CSV_PATH"); raw != "" {
		cfg.QuestionsCSVPath = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("QUESTION_POOL_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.QuestionPoolSize = value
		}
	}
	if raw := os.Getenv("MAX_ROUNDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxRounds = value
		}
	}
	if raw := os.Getenv("ROUND_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RoundSeconds = value
		}
	}
	if raw := os.Getenv("ROUND_LEASE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RoundLeaseSeconds = value
		}
	}
	if raw := os.Getenv("FALLBACK_SCORE_MIN"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.FallbackScoreMin = value
		}
	}
	if raw := os.Getenv("FALLBACK_SCORE_MAX"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.FallbackScoreMax = value
		}
	}
	if cfg.FallbackScoreMax < cfg.FallbackScoreMin {
		cfg.FallbackScoreMax = cfg.FallbackScoreMin
	}
	if raw := os.Getenv("RELAY_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RelayRate = value
		}
	}
	if raw := os.Getenv("RELAY_BURST"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RelayBurst = value
		}
	}
	return cfg
}
