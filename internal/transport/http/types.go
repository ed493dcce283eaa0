package http

import (
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type startRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type answerRequest struct {
	Option *int `json:"option" binding:"required,min=0"`
}

type jumpRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// sessionView is the client-facing session state. Correct options are never included.
type sessionView struct {
	SessionID         string                  `json:"sessionId"`
	UserEmail         string                  `json:"userEmail"`
	Phase             domain.Phase            `json:"phase"`
	CurrentIndex      int                     `json:"currentQuestionIndex"`
	CurrentQuestion   *domain.PublicQuestion  `json:"currentQuestion,omitempty"`
	SelectedOption    *int                    `json:"selectedOption"`
	Questions         []domain.PublicQuestion `json:"questions"`
	Answers           map[string]int          `json:"answers"`
	Overview          domain.Overview         `json:"overview"`
	Progress          float64                 `json:"progress"`
	TimeRemaining     int                     `json:"timeRemaining"`
	TimeRemainingText string                  `json:"timeRemainingText"`
	TimeLimit         int                     `json:"timeLimit"`
	Completed         bool                    `json:"isCompleted"`
}

func newSessionView(st domain.SessionState) sessionView {
	questions := make([]domain.PublicQuestion, len(st.Questions))
	for i, q := range st.Questions {
		questions[i] = q.Public()
	}

	view := sessionView{
		SessionID:         st.SessionID,
		UserEmail:         st.UserID,
		Phase:             st.Phase,
		CurrentIndex:      st.CurrentIndex,
		Questions:         questions,
		Answers:           st.Answers,
		Overview:          app.BuildOverview(st),
		Progress:          app.Progress(st),
		TimeRemaining:     st.TimeRemainingSeconds,
		TimeRemainingText: app.FormatClock(st.TimeRemainingSeconds),
		TimeLimit:         st.TimeLimitSeconds,
		Completed:         st.Completed,
	}
	if st.CurrentIndex >= 0 && st.CurrentIndex < len(questions) {
		current := questions[st.CurrentIndex]
		view.CurrentQuestion = &current
		if option, ok := st.Answers[st.Questions[st.CurrentIndex].ID]; ok {
			view.SelectedOption = &option
		}
	}
	return view
}

// reportView decorates a report with display helpers.
type reportView struct {
	domain.Report
	TimeTakenText string `json:"timeTakenText"`
}

func newReportView(report domain.Report) reportView {
	return reportView{Report: report, TimeTakenText: app.FormatClock(report.TimeTakenSeconds)}
}

type submitResult struct {
	Session sessionView `json:"session"`
	Report  reportView  `json:"report"`
}
