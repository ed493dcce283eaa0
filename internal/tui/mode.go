package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// isTerminal reports whether a reader or writer is a TTY.
var isTerminal = defaultIsTerminal

// ModeDecision captures whether to use the live UI.
type ModeDecision struct {
	Live    bool
	Warning string
}

// ResolveMode picks the live UI or the line prompt. mode is auto, live or plain.
func ResolveMode(mode string, stdin io.Reader, stdout io.Writer) (ModeDecision, error) {
	tty := isTerminal(stdin) && isTerminal(stdout)
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return ModeDecision{Live: tty}, nil
	case "live":
		if tty {
			return ModeDecision{Live: true}, nil
		}
		return ModeDecision{Warning: "Live UI requested but the terminal is not interactive; using the line prompt."}, nil
	case "plain":
		return ModeDecision{}, nil
	default:
		return ModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
}

// NoColor reports whether styling should be disabled for w.
func NoColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return true
	}
	return !isTerminal(w)
}

// PlayOptions configures Play.
type PlayOptions struct {
	Mode   string
	Stdin  io.Reader
	Stdout io.Writer
}

// Play runs session interactively until it completes or the user leaves, then
// prints the report. The bool is false when no submission was produced.
func Play(ctx context.Context, session *app.Session, opts PlayOptions) (domain.Submission, bool, error) {
	stdin, stdout := opts.Stdin, opts.Stdout
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	decision, err := ResolveMode(opts.Mode, stdin, stdout)
	if err != nil {
		return domain.Submission{}, false, err
	}
	if decision.Warning != "" {
		fmt.Fprintln(stdout, decision.Warning)
	}
	if !decision.Live {
		return RunLines(ctx, session, stdin, stdout)
	}

	updates, cancel := session.Subscribe()
	defer cancel()
	model := NewModel(session, updates, Options{NoColor: NoColor(stdout)})
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(stdin),
		tea.WithOutput(stdout),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return domain.Submission{}, false, err
	}
	sub, ok := session.Submission()
	if !ok {
		return domain.Submission{}, false, nil
	}
	// the alt screen is gone, leave the report in the scrollback
	return sub, true, WriteReport(stdout, app.Score(sub))
}

func defaultIsTerminal(stream any) bool {
	if stream == nil {
		return false
	}
	if file, ok := stream.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := stream.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
