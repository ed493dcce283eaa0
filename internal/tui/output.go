package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// WriteReport prints a plain-text report with one row per question.
func WriteReport(w io.Writer, report domain.Report) error {
	rows := make([][]string, 0, len(report.Results))
	for _, row := range reportRows(report) {
		rows = append(rows, row)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Question", "Your answer", "Correct", "Result").
		Rows(rows...)

	_, err := fmt.Fprintf(w, "%s\n%s\n", renderReportHeader(report, true), t.Render())
	return err
}

// WriteHistory prints past results, newest first.
func WriteHistory(w io.Writer, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No previous quizzes.")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Submitted", "Score", "Correct", "Time", "Ended")
	for _, e := range entries {
		t.Row(
			e.SubmittedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.0f%%", e.ScorePercent),
			fmt.Sprintf("%d/%d", e.CorrectCount, e.TotalQuestions),
			app.FormatClock(e.TimeTakenSeconds),
			reasonText(e.Reason),
		)
	}
	_, err := fmt.Fprintf(w, "History\n%s\n", t.Render())
	return err
}
