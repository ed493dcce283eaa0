package app

import (
	"fmt"

	"trivia-quiz-service/internal/domain"
)

const (
	GradeExcellent        = "Excellent"
	GradeGood             = "Good"
	GradeNeedsImprovement = "Needs Improvement"
)

// Score computes the report for a submission. The submission is not modified.
func Score(sub domain.Submission) domain.Report {
	results := make([]domain.QuestionResult, 0, len(sub.Questions))
	correctCount := 0
	answeredCount := 0

	for idx, q := range sub.Questions {
		selected, answered := sub.Answers[q.ID]
		correct := answered && selected == q.CorrectIndex
		if answered {
			answeredCount++
		}
		if correct {
			correctCount++
		}

		selectedText := domain.NotAnswered
		if answered {
			selectedText = optionText(q.Options, selected)
		} else {
			selected = -1
		}

		options := make([]string, len(q.Options))
		copy(options, q.Options)
		results = append(results, domain.QuestionResult{
			Number:        idx + 1,
			QuestionID:    q.ID,
			Text:          q.Text,
			Options:       options,
			SelectedIndex: selected,
			CorrectIndex:  q.CorrectIndex,
			Answered:      answered,
			Correct:       correct,
			SelectedText:  selectedText,
			CorrectText:   optionText(q.Options, q.CorrectIndex),
		})
	}

	total := len(sub.Questions)
	score := 0.0
	if total > 0 {
		score = float64(correctCount) / float64(total) * 100
	}

	return domain.Report{
		SessionID:        sub.SessionID,
		UserID:           sub.UserID,
		Results:          results,
		CorrectCount:     correctCount,
		AnsweredCount:    answeredCount,
		TotalQuestions:   total,
		ScorePercent:     score,
		Grade:            Grade(score),
		TimeTakenSeconds: sub.TimeTakenSeconds,
		Reason:           sub.Reason,
		SubmittedAt:      sub.SubmittedAt,
	}
}

// Grade maps a percentage score to its badge.
func Grade(score float64) string {
	switch {
	case score >= 80:
		return GradeExcellent
	case score >= 60:
		return GradeGood
	default:
		return GradeNeedsImprovement
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func optionText(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return ""
	}
	return options[index]
}

// Summarize reduces a submission to its history entry.
func Summarize(sub domain.Submission) domain.HistoryEntry {
	report := Score(sub)
	return domain.HistoryEntry{
		SessionID:        sub.SessionID,
		UserID:           sub.UserID,
		CorrectCount:     report.CorrectCount,
		TotalQuestions:   report.TotalQuestions,
		ScorePercent:     report.ScorePercent,
		TimeTakenSeconds: sub.TimeTakenSeconds,
		Reason:           sub.Reason,
		SubmittedAt:      sub.SubmittedAt,
	}
}
