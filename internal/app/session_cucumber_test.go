//go:build cucumber

package app_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// TestQuizSessionScenarios runs the quiz session feature scenarios.
func TestQuizSessionScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz-session",
		ScenarioInitializer: InitializeSessionScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "features", "quiz_session.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeSessionScenario wires steps for the quiz session scenarios.
func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	state := &sessionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if state.session != nil {
			state.session.Abandon()
		}
		return ctx, err
	})

	ctx.Step(`^a quiz of (\d+) questions with a time limit of (\d+) seconds$`, state.givenQuiz)
	ctx.Step(`^I answer option (\d+)$`, state.whenIAnswer)
	ctx.Step(`^I answer (\d+) questions correctly$`, state.whenIAnswerCorrectly)
	ctx.Step(`^I go to the next question$`, state.whenNext)
	ctx.Step(`^I go to the previous question$`, state.whenPrevious)
	ctx.Step(`^I jump to question (\d+)$`, state.whenJump)
	ctx.Step(`^I submit the quiz$`, state.whenSubmit)
	ctx.Step(`^(\d+) seconds pass$`, state.whenSecondsPass)
	ctx.Step(`^the current question is (\d+)$`, state.thenCurrentQuestion)
	ctx.Step(`^question (\d+) has status "([^"]+)"$`, state.thenQuestionStatus)
	ctx.Step(`^no error was reported$`, state.thenNoError)
	ctx.Step(`^the last error is "([^"]+)"$`, state.thenLastError)
	ctx.Step(`^exactly (\d+) submissions? (?:is|are) produced$`, state.thenSubmissionCount)
	ctx.Step(`^the submission reason is "([^"]+)"$`, state.thenSubmissionReason)
	ctx.Step(`^the time taken is (\d+) seconds$`, state.thenTimeTaken)
	ctx.Step(`^the time remaining is (\d+) seconds$`, state.thenTimeRemaining)
	ctx.Step(`^the score is (\d+) percent with grade "([^"]+)"$`, state.thenScore)
}

// sessionScenarioState holds one scenario's session and what it produced.
type sessionScenarioState struct {
	session *app.Session
	sched   *app.ManualScheduler
	lastErr error

	mu          sync.Mutex
	submissions []domain.Submission
}

func (s *sessionScenarioState) reset() {
	s.session = nil
	s.sched = nil
	s.lastErr = nil
	s.mu.Lock()
	s.submissions = nil
	s.mu.Unlock()
}

func (s *sessionScenarioState) givenQuiz(n, limit int) error {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("Question %d", i+1),
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: i % 4,
		}
	}
	s.sched = app.NewManualScheduler()
	session, err := app.NewSession(app.SessionConfig{
		ID:        "scenario",
		UserID:    "player@example.com",
		Questions: questions,
		TimeLimit: limit,
		Scheduler: s.sched,
		Now:       func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		return err
	}
	session.OnCompleted(func(sub domain.Submission) {
		s.mu.Lock()
		s.submissions = append(s.submissions, sub)
		s.mu.Unlock()
	})
	s.session = session
	return session.Start()
}

func (s *sessionScenarioState) whenIAnswer(option int) error {
	s.lastErr = s.session.SelectAnswer(option - 1)
	return nil
}

func (s *sessionScenarioState) whenIAnswerCorrectly(n int) error {
	questions := s.session.State().Questions
	for i, q := range questions {
		if err := s.session.JumpTo(i); err != nil {
			return err
		}
		option := q.CorrectIndex
		if i >= n {
			option = (q.CorrectIndex + 1) % len(q.Options)
		}
		if err := s.session.SelectAnswer(option); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionScenarioState) whenNext() error {
	s.lastErr = s.session.Next()
	return nil
}

func (s *sessionScenarioState) whenPrevious() error {
	s.lastErr = s.session.Previous()
	return nil
}

func (s *sessionScenarioState) whenJump(n int) error {
	s.lastErr = s.session.JumpTo(n - 1)
	return nil
}

func (s *sessionScenarioState) whenSubmit() error {
	s.session.Submit()
	return nil
}

func (s *sessionScenarioState) whenSecondsPass(n int) error {
	s.sched.Advance(n)
	return nil
}

func (s *sessionScenarioState) thenCurrentQuestion(n int) error {
	if got := s.session.State().CurrentIndex + 1; got != n {
		return fmt.Errorf("expected question %d, got %d", n, got)
	}
	return nil
}

func (s *sessionScenarioState) thenQuestionStatus(n int, want string) error {
	if got := app.StatusOf(s.session.State(), n-1); string(got) != want {
		return fmt.Errorf("question %d: expected %s, got %s", n, want, got)
	}
	return nil
}

func (s *sessionScenarioState) thenNoError() error {
	if s.lastErr != nil {
		return fmt.Errorf("unexpected error: %v", s.lastErr)
	}
	return nil
}

func (s *sessionScenarioState) thenLastError(kind string) error {
	targets := map[string]error{
		"invalid navigation": domain.ErrInvalidNavigation,
		"option not found":   domain.ErrOptionNotFound,
		"not active":         domain.ErrSessionNotActive,
	}
	target, ok := targets[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !errors.Is(s.lastErr, target) {
		return fmt.Errorf("expected %v, got %v", target, s.lastErr)
	}
	return nil
}

func (s *sessionScenarioState) thenSubmissionCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.submissions) != n {
		return fmt.Errorf("expected %d submissions, got %d", n, len(s.submissions))
	}
	return nil
}

func (s *sessionScenarioState) submission() (domain.Submission, error) {
	sub, ok := s.session.Submission()
	if !ok {
		return domain.Submission{}, errors.New("session has no submission")
	}
	return sub, nil
}

func (s *sessionScenarioState) thenSubmissionReason(reason string) error {
	sub, err := s.submission()
	if err != nil {
		return err
	}
	if string(sub.Reason) != reason {
		return fmt.Errorf("expected reason %s, got %s", reason, sub.Reason)
	}
	return nil
}

func (s *sessionScenarioState) thenTimeTaken(seconds int) error {
	sub, err := s.submission()
	if err != nil {
		return err
	}
	if sub.TimeTakenSeconds != seconds {
		return fmt.Errorf("expected %ds taken, got %d", seconds, sub.TimeTakenSeconds)
	}
	return nil
}

func (s *sessionScenarioState) thenTimeRemaining(seconds int) error {
	if got := s.session.State().TimeRemainingSeconds; got != seconds {
		return fmt.Errorf("expected %ds remaining, got %d", seconds, got)
	}
	return nil
}

func (s *sessionScenarioState) thenScore(score int, grade string) error {
	sub, err := s.submission()
	if err != nil {
		return err
	}
	report := app.Score(sub)
	if math.Round(report.ScorePercent) != float64(score) || report.Grade != grade {
		return fmt.Errorf("expected %d%% %s, got %.1f%% %s", score, grade, report.ScorePercent, report.Grade)
	}
	return nil
}
