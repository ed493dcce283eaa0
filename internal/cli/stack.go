package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/opentdb"
	"trivia-quiz-service/internal/infra/postgres"
	redisstore "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/infra/sqlite"
)

// stack is the wired quiz service plus the resources it holds open.
type stack struct {
	service *app.QuizService
	history app.HistoryRepository // nil without an archive
	closers []func()
}

// Close abandons live sessions and releases connections in reverse order.
func (s *stack) Close() {
	s.service.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// archive is the durable submission store: postgres, sqlite, or none.
type archive interface {
	app.SubmissionRepository
	app.HistoryRepository
}

func buildStack(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stack, error) {
	st := &stack{}
	fail := func(err error) (*stack, error) {
		for i := len(st.closers) - 1; i >= 0; i-- {
			st.closers[i]()
		}
		return nil, err
	}

	var durable archive
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		st.closers = append(st.closers, pool.Close)
		durable = postgres.NewSubmissionStore(pool)
		log.Info().Msg("archiving submissions in postgres")
	case cfg.SQLite.Path != "":
		store, err := sqlite.NewSubmissionStore(cfg.SQLite.Path)
		if err != nil {
			return fail(fmt.Errorf("open sqlite: %w", err))
		}
		st.closers = append(st.closers, func() { _ = store.Close() })
		durable = store
		log.Info().Str("path", cfg.SQLite.Path).Msg("archiving submissions in sqlite")
	}

	var backend app.SubmissionRepository
	if durable != nil {
		backend = durable
		st.history = durable
	}

	submissionTTL := config.TTLDuration(cfg.Quiz.SubmissionTTL, 24*time.Hour)
	var (
		sessions    app.SessionRepository
		submissions app.SubmissionRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		sessionTTL := config.TTLDuration(cfg.Redis.TTL, 45*time.Minute)
		sessions = redisstore.NewSessionStore(client, sessionTTL)
		submissions = redisstore.NewSubmissionStore(client, backend, submissionTTL)
	} else {
		sessions = memory.NewSessionStore()
		submissions = memory.NewSubmissionStore(backend, submissionTTL)
	}

	st.service = app.NewQuizService(sessions, questionSource(cfg, log), submissions, app.Options{
		TimeLimit: cfg.Quiz.TimeLimit,
		BatchSize: cfg.Quiz.BatchSize,
		Logger:    log,
	})
	return st, nil
}

func questionSource(cfg config.Config, log zerolog.Logger) app.QuestionSource {
	if cfg.Trivia.Source == "static" {
		log.Info().Msg("serving questions from the built-in bank")
		return memory.NewStaticQuestionSource(memory.DefaultQuestionBank())
	}
	url := cfg.Trivia.URL
	if url == "" {
		url = opentdb.DefaultURL
	}
	client := &http.Client{Timeout: config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second)}
	return opentdb.NewClient(client, url)
}
