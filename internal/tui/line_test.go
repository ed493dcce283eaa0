package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"
)

func TestRunLinesPlaysToSubmission(t *testing.T) {
	session, _ := newPlayableSession(t, 3, 60)
	in := strings.NewReader("1\nn\n2\nj 3\n9\n4\no\nbogus\ns\n")
	var out bytes.Buffer

	sub, ok, err := RunLines(context.Background(), session, in, &out)
	if err != nil {
		t.Fatalf("RunLines: %v", err)
	}
	if !ok {
		t.Fatalf("expected a submission, output:\n%s", out.String())
	}
	if sub.Reason != domain.SubmitManual || sub.AnsweredCount != 3 {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	text := out.String()
	for _, want := range []string{
		"Answer 1 recorded.",
		"Question 3 of 3",
		"That option does not exist",
		"Unknown command \"bogus\"",
		"Attempted 3",
		"Score 67% (Good)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunLinesNextOnLastQuestionFinishes(t *testing.T) {
	session, _ := newPlayableSession(t, 2, 60)
	var out bytes.Buffer

	sub, ok, err := RunLines(context.Background(), session, strings.NewReader("n\nn\n"), &out)
	if err != nil || !ok {
		t.Fatalf("expected submission, ok=%v err=%v", ok, err)
	}
	if sub.Reason != domain.SubmitFinished {
		t.Fatalf("expected finished, got %s", sub.Reason)
	}
}

func TestRunLinesQuitLeavesSessionRunning(t *testing.T) {
	session, _ := newPlayableSession(t, 2, 60)
	var out bytes.Buffer

	_, ok, err := RunLines(context.Background(), session, strings.NewReader("1\nq\n"), &out)
	if err != nil || ok {
		t.Fatalf("quit should return without submission, ok=%v err=%v", ok, err)
	}
	if session.State().Phase != domain.PhaseInProgress {
		t.Fatalf("quit must not complete the session")
	}
}

func TestRunLinesReportsExpiry(t *testing.T) {
	session, sched := newPlayableSession(t, 2, 2)
	reader, writer := newBlockingInput()
	defer writer.Close()
	var out bytes.Buffer

	type result struct {
		sub domain.Submission
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		sub, ok, err := RunLines(context.Background(), session, reader, &out)
		done <- result{sub, ok, err}
	}()

	sched.Advance(2)

	select {
	case r := <-done:
		if r.err != nil || !r.ok || r.sub.Reason != domain.SubmitExpired {
			t.Fatalf("unexpected result: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunLines did not notice expiry")
	}
	if !strings.Contains(out.String(), "Ended: time expired") {
		t.Fatalf("report missing expiry reason:\n%s", out.String())
	}
}

func TestRunLinesStopsOnContextCancel(t *testing.T) {
	session, _ := newPlayableSession(t, 2, 60)
	reader, writer := newBlockingInput()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok, err := RunLines(ctx, session, reader, &bytes.Buffer{}); ok || err == nil {
		t.Fatalf("expected context error, ok=%v err=%v", ok, err)
	}
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	if err := WriteHistory(&out, nil); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	if !strings.Contains(out.String(), "No previous quizzes") {
		t.Fatalf("unexpected empty history output: %s", out.String())
	}

	out.Reset()
	entries := []domain.HistoryEntry{{
		SessionID:        "s-1",
		CorrectCount:     12,
		TotalQuestions:   15,
		ScorePercent:     80,
		TimeTakenSeconds: 754,
		Reason:           domain.SubmitManual,
		SubmittedAt:      time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}}
	if err := WriteHistory(&out, entries); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	for _, want := range []string{"80%", "12/15", "12:34", "submitted"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("history missing %q:\n%s", want, out.String())
		}
	}
}

// newBlockingInput returns a reader that blocks until the writer is closed.
func newBlockingInput() (*io.PipeReader, *io.PipeWriter) {
	return io.Pipe()
}
