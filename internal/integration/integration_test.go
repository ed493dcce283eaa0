package integration

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/postgres"
	pgmigrations "trivia-quiz-service/internal/infra/postgres/migrations"
	infraredis "trivia-quiz-service/internal/infra/redis"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateArchive(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	archive := postgres.NewSubmissionStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	submissions := infraredis.NewSubmissionStore(redisClient, archive, 5*time.Minute)
	sched := app.NewManualScheduler()
	service := app.NewQuizService(sessions, memory.NewStaticQuestionSource(memory.DefaultQuestionBank()), submissions, app.Options{
		BatchSize: 5,
		Scheduler: sched,
		Rand:      rand.New(rand.NewSource(7)),
		Logger:    zerolog.Nop(),
	})
	defer service.Close()

	session, err := service.StartSession(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if owner, ok, err := sessions.Owner(ctx, session.ID()); err != nil || !ok || owner != "alice@example.com" {
		t.Fatalf("expected redis liveness key, owner=%q ok=%v err=%v", owner, ok, err)
	}

	// answer every question correctly except the last
	questions := session.State().Questions
	for i, q := range questions {
		option := q.CorrectIndex
		if i == len(questions)-1 {
			option = (q.CorrectIndex + 1) % len(q.Options)
		}
		if err := session.SelectAnswer(option); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		sched.Advance(10)
		if i < len(questions)-1 {
			if err := session.Next(); err != nil {
				t.Fatalf("next %d: %v", i, err)
			}
		}
	}
	if _, first := session.Submit(); !first {
		t.Fatalf("expected first submission")
	}

	if _, ok, _ := sessions.Owner(ctx, session.ID()); ok {
		t.Fatalf("liveness key should be gone after submission")
	}

	report, err := service.Report(ctx, session.ID())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.CorrectCount != 4 || report.TotalQuestions != 5 || report.Grade != app.GradeExcellent {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.TimeTakenSeconds != 50 {
		t.Fatalf("expected 50s taken, got %d", report.TimeTakenSeconds)
	}

	// the archive is authoritative even once the redis copy is gone
	if err := redisClient.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	stored, err := archive.GetSubmission(ctx, session.ID())
	if err != nil {
		t.Fatalf("archive get: %v", err)
	}
	if stored.AnsweredCount != 5 || stored.Reason != domain.SubmitManual {
		t.Fatalf("unexpected archived submission: %+v", stored)
	}

	history, err := archive.History(ctx, "alice@example.com", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].SessionID != session.ID() || history[0].ScorePercent != 80 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://quiz:quizpass@%s/quizdb?sslmode=disable", addr), cleanup
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return "redis://" + addr, cleanup
}

// startContainer runs req and returns the host:port mapped to port.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) (string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	cleanup := func() { _ = container.Terminate(ctx) }

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		cleanup()
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return host + ":" + mapped.Port(), cleanup
}

func migrateArchive(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
