package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/logger"
	"trivia-quiz-service/internal/tui"
)

const historyLimit = 10

type playOptions struct {
	email   string
	mode    string
	history string
	static  bool
	logFile string
}

// NewPlayCmd runs one quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, *opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "email identifying the player (required)")
	cmd.Flags().StringVar(&opts.mode, "ui", "auto", "ui mode: auto, live or plain")
	cmd.Flags().StringVar(&opts.history, "history", "", "sqlite file that keeps your past results")
	cmd.Flags().BoolVar(&opts.static, "offline", false, "use the built-in question bank instead of Open Trivia DB")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runPlay(ctx context.Context, configPath string, opts playOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// The terminal player keeps everything local.
	cfg.Redis.Addr = ""
	cfg.Postgres.URL = ""
	cfg.SQLite.Path = opts.history
	if opts.static {
		cfg.Trivia.Source = "static"
	}

	log := zerolog.Nop()
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log = logger.New(f, cfg.Log.Level, cfg.Log.Format)
	}

	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintln(stdout, "Fetching questions...")
	session, err := st.service.StartSession(ctx, opts.email)
	if err != nil {
		return err
	}

	_, ok, err := tui.Play(ctx, session, tui.PlayOptions{Mode: opts.mode, Stdin: stdin, Stdout: stdout})
	if !ok {
		_ = st.service.Abandon(session.ID())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Quiz abandoned, nothing was recorded.")
		return nil
	}
	if err != nil {
		return err
	}

	if st.history == nil {
		return nil
	}
	entries, err := st.history.History(ctx, session.UserID(), historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	fmt.Fprintln(stdout)
	return tui.WriteHistory(stdout, entries)
}
