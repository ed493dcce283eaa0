package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const lineHelp = `Commands:
  <number>     answer the current question with that option
  n, next      next question (submits on the last one)
  p, prev      previous question
  j <number>   jump to a question
  o            show the question overview
  t            show the time left
  s, submit    submit the quiz
  q, quit      leave without submitting`

// RunLines plays session over a plain line prompt. It returns once the session
// completes, the user quits, input ends or ctx is cancelled. The bool is false when no
// submission was produced.
func RunLines(ctx context.Context, session *app.Session, in io.Reader, out io.Writer) (domain.Submission, bool, error) {
	updates, cancel := session.Subscribe()
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	fmt.Fprintln(out, "Type h for help.")
	writeQuestion(out, session.State())

	for {
		select {
		case <-ctx.Done():
			return domain.Submission{}, false, ctx.Err()
		case update, open := <-updates:
			if !open {
				updates = nil
				continue
			}
			if update.Kind == domain.UpdateCompleted && update.Submission != nil {
				return finishLines(out, *update.Submission)
			}
			if update.Kind == domain.UpdateTick && update.State.TimeRemainingSeconds == lowTimeSeconds {
				fmt.Fprintln(out, "One minute left.")
			}
		case line, open := <-lines:
			if !open {
				select {
				case err := <-readErr:
					return domain.Submission{}, false, err
				default:
					return domain.Submission{}, false, nil
				}
			}
			if quit := runCommand(out, session, line); quit {
				return domain.Submission{}, false, nil
			}
			if sub, completed := session.Submission(); completed {
				return finishLines(out, sub)
			}
		}
	}
}

func finishLines(out io.Writer, sub domain.Submission) (domain.Submission, bool, error) {
	fmt.Fprintln(out)
	if err := WriteReport(out, app.Score(sub)); err != nil {
		return sub, true, err
	}
	return sub, true, nil
}

// runCommand executes one prompt line and reports whether the user asked to quit.
func runCommand(out io.Writer, session *app.Session, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		fmt.Fprintln(out, lineHelp)
		return false
	case "o", "overview":
		fmt.Fprintln(out, renderOverview(session.State(), true))
		return false
	case "t", "time":
		fmt.Fprintln(out, "Time left "+app.FormatClock(session.State().TimeRemainingSeconds))
		return false
	case "n", "next":
		err = session.Next()
	case "p", "prev", "previous":
		err = session.Previous()
	case "j", "jump":
		if len(fields) < 2 {
			fmt.Fprintln(out, "Usage: j <number>")
			return false
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			err = domain.ErrInvalidNavigation
			break
		}
		err = session.JumpTo(n - 1)
	case "s", "submit":
		session.Submit()
		return false
	default:
		n, convErr := strconv.Atoi(fields[0])
		if convErr != nil {
			fmt.Fprintf(out, "Unknown command %q. Type h for help.\n", fields[0])
			return false
		}
		if err := session.SelectAnswer(n - 1); err != nil {
			fmt.Fprintln(out, statusFor(err))
			return false
		}
		fmt.Fprintf(out, "Answer %d recorded.\n", n)
		return false
	}

	if err != nil {
		fmt.Fprintln(out, statusFor(err))
		return false
	}
	state := session.State()
	if state.Phase == domain.PhaseInProgress {
		writeQuestion(out, state)
	}
	return false
}

func writeQuestion(out io.Writer, state domain.SessionState) {
	fmt.Fprintln(out, renderHeader(state, true))
	fmt.Fprint(out, renderQuestion(state, true))
}
