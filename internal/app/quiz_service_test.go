package app_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func TestStartSessionAndSubmitProducesReport(t *testing.T) {
	ctx := context.Background()
	service, sessions, sched := newTestService(memory.NewStaticQuestionSource(memory.DefaultQuestionBank()))

	session, err := service.StartSession(ctx, "  player@example.com ")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.ID() != "session-1" || session.UserID() != "player@example.com" {
		t.Fatalf("unexpected session identity: %s %s", session.ID(), session.UserID())
	}

	st := session.State()
	if len(st.Questions) != app.BatchSize {
		t.Fatalf("expected %d questions, got %d", app.BatchSize, len(st.Questions))
	}
	if st.TimeRemainingSeconds != app.TimeLimitSeconds {
		t.Fatalf("expected full time limit, got %d", st.TimeRemainingSeconds)
	}

	correct := st.Questions[0].CorrectIndex
	if err := session.SelectAnswer(correct); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	sched.Advance(90)
	if _, first := session.Submit(); !first {
		t.Fatalf("expected first submission")
	}

	if _, ok := sessions.Get(session.ID()); ok {
		t.Fatalf("completed session should leave the live registry")
	}
	if _, err := service.Session(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found after completion, got %v", err)
	}

	report, err := service.Report(ctx, session.ID())
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.CorrectCount != 1 || report.AnsweredCount != 1 || report.TotalQuestions != app.BatchSize {
		t.Fatalf("unexpected report counts: %+v", report)
	}
	if report.TimeTakenSeconds != 90 || report.Reason != domain.SubmitManual {
		t.Fatalf("unexpected report timing: %+v", report)
	}
}

func TestStartSessionRejectsInvalidEmail(t *testing.T) {
	service, _, _ := newTestService(memory.NewStaticQuestionSource(memory.DefaultQuestionBank()))

	for _, email := range []string{"", "   ", "not-an-email", "a@"} {
		if _, err := service.StartSession(context.Background(), email); !errors.Is(err, domain.ErrInvalidUser) {
			t.Fatalf("StartSession(%q) expected ErrInvalidUser, got %v", email, err)
		}
	}
}

func TestStartSessionSourceFailure(t *testing.T) {
	tests := []struct {
		name   string
		source app.QuestionSource
	}{
		{name: "fetch error", source: failingSource{err: errors.New("connection refused")}},
		{name: "empty batch", source: failingSource{}},
		{name: "unusable questions", source: memory.NewStaticQuestionSource([]domain.RawQuestion{
			{Question: "No wrong answers", CorrectAnswer: "only"},
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service, sessions, _ := newTestService(tc.source)
			_, err := service.StartSession(context.Background(), "player@example.com")
			if !errors.Is(err, domain.ErrSourceUnavailable) {
				t.Fatalf("expected ErrSourceUnavailable, got %v", err)
			}
			if n := len(sessions.List()); n != 0 {
				t.Fatalf("no session should be created, found %d", n)
			}
		})
	}
}

func TestTimerExpiryHandsOffSubmission(t *testing.T) {
	ctx := context.Background()
	source := memory.NewStaticQuestionSource(memory.DefaultQuestionBank()[:3])
	sessions := memory.NewSessionStore()
	sched := app.NewManualScheduler()
	service := app.NewQuizService(sessions, source, memory.NewSubmissionStore(nil, time.Hour), app.Options{
		TimeLimit: 3,
		Scheduler: sched,
		Rand:      rand.New(rand.NewSource(1)),
		NewID:     func() string { return "expiring" },
		Logger:    zerolog.Nop(),
	})

	session, err := service.StartSession(ctx, "player@example.com")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sched.Advance(3)

	sub, ok := session.Submission()
	if !ok || sub.Reason != domain.SubmitExpired || sub.TimeTakenSeconds != 3 {
		t.Fatalf("expected expired submission, got %+v (ok=%v)", sub, ok)
	}
	report, err := service.Report(ctx, "expiring")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.AnsweredCount != 0 || report.ScorePercent != 0 || report.Grade != app.GradeNeedsImprovement {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestAbandonAndClose(t *testing.T) {
	ctx := context.Background()
	service, sessions, sched := newTestService(memory.NewStaticQuestionSource(memory.DefaultQuestionBank()))

	first, _ := service.StartSession(ctx, "one@example.com")
	second, _ := service.StartSession(ctx, "two@example.com")

	if err := service.Abandon(first.ID()); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if err := service.Abandon(first.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second abandon should report not found, got %v", err)
	}

	service.Close()
	if n := len(sessions.List()); n != 0 {
		t.Fatalf("close should empty the registry, %d left", n)
	}
	if second.State().Phase != domain.PhaseAbandoned {
		t.Fatalf("close should abandon live sessions")
	}
	if sched.Pending() != 0 {
		t.Fatalf("countdowns still scheduled after close: %d", sched.Pending())
	}
	if _, err := service.Report(ctx, second.ID()); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("abandoned session must not have a report, got %v", err)
	}
}

type failingSource struct {
	err error
}

func (s failingSource) FetchQuestions(context.Context, int) ([]domain.RawQuestion, error) {
	return nil, s.err
}

func newTestService(source app.QuestionSource) (*app.QuizService, *memory.SessionStore, *app.ManualScheduler) {
	sessions := memory.NewSessionStore()
	sched := app.NewManualScheduler()
	ids := 0
	service := app.NewQuizService(sessions, source, memory.NewSubmissionStore(nil, time.Hour), app.Options{
		Scheduler: sched,
		Rand:      rand.New(rand.NewSource(1)),
		NewID: func() string {
			ids++
			return "session-" + strconv.Itoa(ids)
		},
		Logger: zerolog.Nop(),
	})
	return service, sessions, sched
}
