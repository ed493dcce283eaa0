package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

const (
	// TimeLimitSeconds is the total time allowed for one session.
	TimeLimitSeconds = 30 * 60
	// BatchSize is the number of questions requested per session.
	BatchSize = 15
)

// SessionConfig describes a new session.
type SessionConfig struct {
	ID        string
	UserID    string
	Questions []domain.Question
	TimeLimit int // seconds, defaults to TimeLimitSeconds
	Scheduler Scheduler
	Now       func() time.Time
}

// Session is the state machine for one user's timed quiz.
// Every operation and every countdown tick runs under mu, so state changes never interleave.
type Session struct {
	id        string
	userID    string
	questions []domain.Question
	timeLimit int
	now       func() time.Time

	mu          sync.Mutex
	phase       domain.Phase
	current     int
	answers     map[string]int
	visited     map[int]struct{}
	remaining   int
	timer       *Countdown
	submission  *domain.Submission
	pending     *domain.Submission
	onCompleted []func(domain.Submission)
	subscribers map[chan domain.SessionUpdate]struct{}
}

// NewSession validates the question list and returns a session awaiting Start.
func NewSession(cfg SessionConfig) (*Session, error) {
	if len(cfg.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	seen := make(map[string]struct{}, len(cfg.Questions))
	for _, q := range cfg.Questions {
		if len(q.Options) < 2 || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("question %q: %w", q.ID, domain.ErrInvalidQuestion)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q: %w", q.ID, domain.ErrInvalidQuestion)
		}
		seen[q.ID] = struct{}{}
	}

	limit := cfg.TimeLimit
	if limit <= 0 {
		limit = TimeLimitSeconds
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	questions := make([]domain.Question, len(cfg.Questions))
	copy(questions, cfg.Questions)

	s := &Session{
		id:          cfg.ID,
		userID:      cfg.UserID,
		questions:   questions,
		timeLimit:   limit,
		now:         now,
		phase:       domain.PhaseAwaitingStart,
		answers:     make(map[string]int),
		visited:     map[int]struct{}{0: {}},
		remaining:   limit,
		subscribers: make(map[chan domain.SessionUpdate]struct{}),
	}
	s.timer = NewCountdown(CountdownConfig{
		Seconds:   limit,
		Scheduler: cfg.Scheduler,
		Guard:     &s.mu,
		OnTick:    s.handleTickLocked,
		OnExpire:  s.handleExpiryLocked,
		AfterTick: s.flushCompletion,
	})
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

// Start moves the session into progress and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseAwaitingStart {
		return domain.ErrSessionNotActive
	}
	s.phase = domain.PhaseInProgress
	s.timer.startLocked()
	s.broadcastLocked(domain.UpdateState, nil)
	return nil
}

// OnCompleted registers fn to receive the submission. If the session has already
// completed, fn is called immediately.
func (s *Session) OnCompleted(fn func(domain.Submission)) {
	s.mu.Lock()
	if s.submission != nil && s.pending == nil {
		sub := cloneSubmission(*s.submission)
		s.mu.Unlock()
		fn(sub)
		return
	}
	s.onCompleted = append(s.onCompleted, fn)
	s.mu.Unlock()
}

// SelectAnswer records option for the current question, replacing any earlier choice.
func (s *Session) SelectAnswer(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrSessionNotActive
	}
	q := s.questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return domain.ErrOptionNotFound
	}
	s.answers[q.ID] = option
	s.broadcastLocked(domain.UpdateState, nil)
	return nil
}

// Next advances to the following question, or submits when already on the last one.
func (s *Session) Next() error {
	s.mu.Lock()
	if s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	if s.current < len(s.questions)-1 {
		s.moveLocked(s.current + 1)
		s.mu.Unlock()
		return nil
	}
	s.submitLocked(domain.SubmitFinished)
	s.mu.Unlock()
	s.flushCompletion()
	return nil
}

// Previous steps back one question. It is a no-op on the first question.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrSessionNotActive
	}
	if s.current > 0 {
		s.moveLocked(s.current - 1)
	}
	return nil
}

// JumpTo makes index the current question.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrSessionNotActive
	}
	if index < 0 || index >= len(s.questions) {
		return domain.ErrInvalidNavigation
	}
	s.moveLocked(index)
	return nil
}

// Submit completes the session. Only the first call produces a submission; later
// calls return the same snapshot with first == false.
func (s *Session) Submit() (sub domain.Submission, first bool) {
	s.mu.Lock()
	switch s.phase {
	case domain.PhaseCompleted:
		sub = cloneSubmission(*s.submission)
		s.mu.Unlock()
		return sub, false
	case domain.PhaseInProgress:
	default:
		s.mu.Unlock()
		return domain.Submission{}, false
	}
	sub = s.submitLocked(domain.SubmitManual)
	s.mu.Unlock()
	s.flushCompletion()
	return sub, true
}

// Abandon tears the session down without producing a submission.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseCompleted || s.phase == domain.PhaseAbandoned {
		return
	}
	s.phase = domain.PhaseAbandoned
	s.timer.disposeLocked()
	s.broadcastLocked(domain.UpdateState, nil)
}

// State returns a copy of the current session state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Submission returns the terminal snapshot once the session has completed.
func (s *Session) Submission() (domain.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission == nil {
		return domain.Submission{}, false
	}
	return cloneSubmission(*s.submission), true
}

// Subscribe returns a channel of session updates, primed with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionUpdate, func()) {
	ch := make(chan domain.SessionUpdate, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := domain.SessionUpdate{Kind: domain.UpdateState, State: s.stateLocked()}
	if s.submission != nil {
		sub := cloneSubmission(*s.submission)
		initial.Kind = domain.UpdateCompleted
		initial.Submission = &sub
	}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) moveLocked(index int) {
	s.current = index
	s.visited[index] = struct{}{}
	s.broadcastLocked(domain.UpdateState, nil)
}

func (s *Session) handleTickLocked(remaining int) {
	s.remaining = remaining
	s.broadcastLocked(domain.UpdateTick, nil)
}

func (s *Session) handleExpiryLocked() {
	if s.phase != domain.PhaseInProgress {
		return
	}
	s.submitLocked(domain.SubmitExpired)
}

func (s *Session) submitLocked(reason domain.SubmitReason) domain.Submission {
	s.phase = domain.PhaseCompleted
	s.timer.disposeLocked()

	taken := s.timeLimit - s.remaining
	if taken < 0 {
		taken = 0
	}
	answers := make(map[string]int, len(s.answers))
	for id, option := range s.answers {
		answers[id] = option
	}
	sub := domain.Submission{
		SessionID:        s.id,
		UserID:           s.userID,
		Questions:        cloneQuestions(s.questions),
		Answers:          answers,
		TimeTakenSeconds: taken,
		TotalQuestions:   len(s.questions),
		AnsweredCount:    len(answers),
		Reason:           reason,
		SubmittedAt:      s.now(),
	}
	s.submission = &sub
	pending := cloneSubmission(sub)
	s.pending = &pending
	s.broadcastLocked(domain.UpdateCompleted, &sub)
	return cloneSubmission(sub)
}

// flushCompletion hands a freshly produced submission to the completion callbacks.
// It runs without the lock so callbacks may call back into the session.
func (s *Session) flushCompletion() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	callbacks := make([]func(domain.Submission), len(s.onCompleted))
	copy(callbacks, s.onCompleted)
	s.mu.Unlock()

	if pending == nil {
		return
	}
	for _, fn := range callbacks {
		fn(cloneSubmission(*pending))
	}
}

func (s *Session) stateLocked() domain.SessionState {
	answers := make(map[string]int, len(s.answers))
	for id, option := range s.answers {
		answers[id] = option
	}
	visited := make([]int, 0, len(s.visited))
	for idx := range s.visited {
		visited = append(visited, idx)
	}
	sort.Ints(visited)

	return domain.SessionState{
		SessionID:            s.id,
		UserID:               s.userID,
		Phase:                s.phase,
		Questions:            cloneQuestions(s.questions),
		CurrentIndex:         s.current,
		Answers:              answers,
		Visited:              visited,
		TimeRemainingSeconds: s.remaining,
		TimeLimitSeconds:     s.timeLimit,
		Completed:            s.phase == domain.PhaseCompleted,
	}
}

func (s *Session) broadcastLocked(kind domain.UpdateKind, sub *domain.Submission) {
	if len(s.subscribers) == 0 {
		return
	}
	update := domain.SessionUpdate{Kind: kind, State: s.stateLocked()}
	if sub != nil {
		c := cloneSubmission(*sub)
		update.Submission = &c
	}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest pending update so a slow reader never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		q.Options = options
		out[i] = q
	}
	return out
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	answers := make(map[string]int, len(sub.Answers))
	for id, option := range sub.Answers {
		answers[id] = option
	}
	sub.Answers = answers
	sub.Questions = cloneQuestions(sub.Questions)
	return sub
}
