package app

import "trivia-quiz-service/internal/domain"

// StatusOf classifies the question at index. Precedence: current, attempted, visited, unvisited.
func StatusOf(state domain.SessionState, index int) domain.QuestionStatus {
	switch {
	case index == state.CurrentIndex:
		return domain.StatusCurrent
	case state.IsAnswered(index):
		return domain.StatusAttempted
	case state.IsVisited(index):
		return domain.StatusVisited
	default:
		return domain.StatusUnvisited
	}
}

// BuildOverview derives the jump-to-question view. It is recomputed on every call.
func BuildOverview(state domain.SessionState) domain.Overview {
	total := len(state.Questions)
	statuses := make([]domain.QuestionStatus, total)
	for i := range statuses {
		statuses[i] = StatusOf(state, i)
	}

	visited := 0
	for _, idx := range state.Visited {
		if idx >= 0 && idx < total {
			visited++
		}
	}

	return domain.Overview{
		Statuses:  statuses,
		Attempted: len(state.Answers),
		Visited:   visited,
		Remaining: total - visited,
		Total:     total,
	}
}

// Progress is the answered share of the quiz in percent.
func Progress(state domain.SessionState) float64 {
	if len(state.Questions) == 0 {
		return 0
	}
	return float64(len(state.Answers)) / float64(len(state.Questions)) * 100
}
