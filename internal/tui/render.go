package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const (
	colorTitle   = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("242")
	colorWarn    = lipgloss.Color("214")
	colorDanger  = lipgloss.Color("196")
	colorGood    = lipgloss.Color("42")
	colorCurrent = lipgloss.Color("39")

	lowTimeSeconds = 60
)

// renderHeader renders the user, clock and progress lines.
func renderHeader(state domain.SessionState, noColor bool) string {
	clock := "Time left " + app.FormatClock(state.TimeRemainingSeconds)
	clockColor := colorTitle
	if state.TimeRemainingSeconds <= lowTimeSeconds {
		clockColor = colorDanger
	}
	title := stylize("Trivia quiz | "+state.UserID, noColor, colorTitle)
	progress := fmt.Sprintf("Question %d of %d | Answered %d | Progress %.0f%%",
		state.CurrentIndex+1, len(state.Questions), len(state.Answers), app.Progress(state))
	return lipgloss.JoinVertical(lipgloss.Left,
		title+"  "+stylize(clock, noColor, clockColor),
		stylize(progress, noColor, colorMuted),
	)
}

// renderQuestion renders the current question and its numbered options.
func renderQuestion(state domain.SessionState, noColor bool) string {
	if state.CurrentIndex < 0 || state.CurrentIndex >= len(state.Questions) {
		return ""
	}
	q := state.Questions[state.CurrentIndex]
	selected, answered := state.Answers[q.ID]

	var b strings.Builder
	if q.Category != "" {
		meta := q.Category
		if q.Difficulty != "" {
			meta += " / " + q.Difficulty
		}
		b.WriteString(stylize(meta, noColor, colorMuted))
		b.WriteString("\n")
	}
	b.WriteString(q.Text)
	b.WriteString("\n")
	for i, option := range q.Options {
		marker := "  "
		line := fmt.Sprintf("[%d] %s", i+1, option)
		if answered && selected == i {
			marker = "> "
			line = stylize(line, noColor, colorGood)
		}
		b.WriteString(marker + line + "\n")
	}
	return b.String()
}

// renderOverview renders one cell per question: (n) current, [n] attempted,
// n visited and . unvisited.
func renderOverview(state domain.SessionState, noColor bool) string {
	overview := app.BuildOverview(state)
	cells := make([]string, len(overview.Statuses))
	for i, status := range overview.Statuses {
		n := fmt.Sprintf("%d", i+1)
		switch status {
		case domain.StatusCurrent:
			cells[i] = stylize("("+n+")", noColor, colorCurrent)
		case domain.StatusAttempted:
			cells[i] = stylize("["+n+"]", noColor, colorGood)
		case domain.StatusVisited:
			cells[i] = " " + n + " "
		default:
			cells[i] = stylize(" . ", noColor, colorMuted)
		}
	}
	summary := fmt.Sprintf("Attempted %d | Visited %d | Not visited %d",
		overview.Attempted, overview.Visited, overview.Remaining)
	return strings.Join(cells, "") + "\n" + stylize(summary, noColor, colorMuted)
}

// renderReportHeader renders the score summary above the results table.
func renderReportHeader(report domain.Report, noColor bool) string {
	color := colorGood
	if report.Grade == app.GradeNeedsImprovement {
		color = colorDanger
	}
	score := fmt.Sprintf("Score %.0f%% (%s)", report.ScorePercent, report.Grade)
	details := fmt.Sprintf("Correct %d of %d | Answered %d | Time taken %s | Ended: %s",
		report.CorrectCount, report.TotalQuestions, report.AnsweredCount,
		app.FormatClock(report.TimeTakenSeconds), reasonText(report.Reason))
	return lipgloss.JoinVertical(lipgloss.Left,
		stylize("Quiz complete | "+report.UserID, noColor, colorTitle),
		stylize(score, noColor, color),
		stylize(details, noColor, colorMuted),
	)
}

func reasonText(reason domain.SubmitReason) string {
	switch reason {
	case domain.SubmitExpired:
		return "time expired"
	case domain.SubmitFinished:
		return "finished"
	default:
		return "submitted"
	}
}

// reportColumns sizes the results table for the terminal width.
func reportColumns(width int) []table.Column {
	answerWidth := 16
	questionWidth := width - 4 - 2*answerWidth - 8 - 10
	if questionWidth < 20 {
		questionWidth = 20
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Question", Width: questionWidth},
		{Title: "Your answer", Width: answerWidth},
		{Title: "Correct", Width: answerWidth},
		{Title: "Result", Width: 8},
	}
}

func reportRows(report domain.Report) []table.Row {
	rows := make([]table.Row, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.Number),
			r.Text,
			r.SelectedText,
			r.CorrectText,
			resultText(r),
		})
	}
	return rows
}

func resultText(r domain.QuestionResult) string {
	switch {
	case !r.Answered:
		return "skipped"
	case r.Correct:
		return "correct"
	default:
		return "wrong"
	}
}

func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		styles.Selected = lipgloss.NewStyle().Bold(true)
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252")).Bold(true)
	return styles
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
