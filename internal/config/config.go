package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		GinMode string `yaml:"gin_mode"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TimeLimit     int    `yaml:"time_limit"`
		BatchSize     int    `yaml:"batch_size"`
		SubmissionTTL string `yaml:"submission_ttl"`
	} `yaml:"quiz"`
	Trivia struct {
		Source  string `yaml:"source"` // "opentdb" or "static"
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"trivia"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error; a .env file in the working directory is loaded if present.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.GinMode, "GIN_MODE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.SQLite.Path, "SQLITE_PATH")
	setInt(&cfg.Quiz.TimeLimit, "QUIZ_TIME_LIMIT")
	setInt(&cfg.Quiz.BatchSize, "QUIZ_BATCH_SIZE")
	setString(&cfg.Quiz.SubmissionTTL, "QUIZ_SUBMISSION_TTL")
	setString(&cfg.Trivia.Source, "TRIVIA_SOURCE")
	setString(&cfg.Trivia.URL, "TRIVIA_URL")
	setString(&cfg.Trivia.Timeout, "TRIVIA_TIMEOUT")
	if raw, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = parseOrigins(raw)
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func parseOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
