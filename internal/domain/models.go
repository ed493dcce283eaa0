package domain

import "time"

// RawQuestion mirrors the Open Trivia DB question payload. Text fields are HTML-entity encoded.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswer"`
	Category     string   `json:"category,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// PublicQuestion is the client-facing view of a question.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"question"`
	Options    []string `json:"options"`
	Category   string   `json:"category,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// Public strips the correct option from q.
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// Phase is the lifecycle stage of a quiz session.
type Phase string

const (
	PhaseAwaitingStart Phase = "awaiting_start"
	PhaseInProgress    Phase = "in_progress"
	PhaseCompleted     Phase = "completed"
	PhaseAbandoned     Phase = "abandoned"
)

// SessionState is a point-in-time copy of a session. Mutating it has no effect on the session.
type SessionState struct {
	SessionID            string         `json:"sessionId"`
	UserID               string         `json:"userEmail"`
	Phase                Phase          `json:"phase"`
	Questions            []Question     `json:"-"`
	CurrentIndex         int            `json:"currentQuestionIndex"`
	Answers              map[string]int `json:"answers"`
	Visited              []int          `json:"visited"`
	TimeRemainingSeconds int            `json:"timeRemaining"`
	TimeLimitSeconds     int            `json:"timeLimit"`
	Completed            bool           `json:"isCompleted"`
}

// IsVisited reports whether index has ever been the current question.
func (s SessionState) IsVisited(index int) bool {
	for _, v := range s.Visited {
		if v == index {
			return true
		}
	}
	return false
}

// IsAnswered reports whether the question at index has a recorded answer.
func (s SessionState) IsAnswered(index int) bool {
	if index < 0 || index >= len(s.Questions) {
		return false
	}
	_, ok := s.Answers[s.Questions[index].ID]
	return ok
}

// SubmitReason records what ended a session.
type SubmitReason string

const (
	SubmitManual   SubmitReason = "manual"
	SubmitExpired  SubmitReason = "time_expired"
	SubmitFinished SubmitReason = "finished"
)

// Submission is the immutable terminal snapshot of a completed session.
type Submission struct {
	SessionID        string         `json:"sessionId"`
	UserID           string         `json:"userEmail"`
	Questions        []Question     `json:"questions"`
	Answers          map[string]int `json:"answers"`
	TimeTakenSeconds int            `json:"timeTaken"`
	TotalQuestions   int            `json:"totalQuestions"`
	AnsweredCount    int            `json:"answeredQuestions"`
	Reason           SubmitReason   `json:"reason"`
	SubmittedAt      time.Time      `json:"submittedAt"`
}

// QuestionStatus classifies a question for the navigation overview.
type QuestionStatus string

const (
	StatusCurrent   QuestionStatus = "current"
	StatusAttempted QuestionStatus = "attempted"
	StatusVisited   QuestionStatus = "visited"
	StatusUnvisited QuestionStatus = "unvisited"
)

// Overview is the derived per-question status view of a session.
type Overview struct {
	Statuses  []QuestionStatus `json:"statuses"`
	Attempted int              `json:"attempted"`
	Visited   int              `json:"visited"`
	Remaining int              `json:"remaining"`
	Total     int              `json:"total"`
}

// NotAnswered is the display text for a question left without an answer.
const NotAnswered = "Not answered"

// QuestionResult is the scored outcome of a single question.
type QuestionResult struct {
	Number        int      `json:"questionNumber"`
	QuestionID    string   `json:"questionId"`
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	SelectedIndex int      `json:"userAnswer"` // -1 when unanswered
	CorrectIndex  int      `json:"correctAnswer"`
	Answered      bool     `json:"isAnswered"`
	Correct       bool     `json:"isCorrect"`
	SelectedText  string   `json:"userAnswerText"`
	CorrectText   string   `json:"correctAnswerText"`
}

// Report aggregates the results of a submission.
type Report struct {
	SessionID        string           `json:"sessionId"`
	UserID           string           `json:"userEmail"`
	Results          []QuestionResult `json:"results"`
	CorrectCount     int              `json:"correctAnswers"`
	AnsweredCount    int              `json:"answeredQuestions"`
	TotalQuestions   int              `json:"totalQuestions"`
	ScorePercent     float64          `json:"score"`
	Grade            string           `json:"grade"`
	TimeTakenSeconds int              `json:"timeTaken"`
	Reason           SubmitReason     `json:"reason"`
	SubmittedAt      time.Time        `json:"submittedAt"`
}

// UpdateKind tags a session update pushed to subscribers.
type UpdateKind string

const (
	UpdateState     UpdateKind = "state"
	UpdateTick      UpdateKind = "tick"
	UpdateCompleted UpdateKind = "completed"
)

// SessionUpdate is a snapshot-friendly notification of a session change.
type SessionUpdate struct {
	Kind       UpdateKind   `json:"kind"`
	State      SessionState `json:"state"`
	Submission *Submission  `json:"submission,omitempty"`
}

// HistoryEntry summarises one archived submission.
type HistoryEntry struct {
	SessionID        string       `json:"sessionId"`
	UserID           string       `json:"userEmail"`
	CorrectCount     int          `json:"correctAnswers"`
	TotalQuestions   int          `json:"totalQuestions"`
	ScorePercent     float64      `json:"score"`
	TimeTakenSeconds int          `json:"timeTaken"`
	Reason           SubmitReason `json:"reason"`
	SubmittedAt      time.Time    `json:"submittedAt"`
}
