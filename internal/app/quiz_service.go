package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	List() []*Session
}

// QuestionSource fetches a batch of raw questions.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, amount int) ([]domain.RawQuestion, error)
}

// SubmissionRepository keeps completed submissions for report display.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, sub domain.Submission) error
	GetSubmission(ctx context.Context, sessionID string) (domain.Submission, error)
}

// HistoryRepository lists archived results for a user, newest first.
type HistoryRepository interface {
	History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}

// Options tunes a QuizService. Zero values fall back to the session policy defaults.
type Options struct {
	TimeLimit   int
	BatchSize   int
	Scheduler   Scheduler
	Rand        *rand.Rand
	NewID       func() string
	Now         func() time.Time
	SaveTimeout time.Duration
	Logger      zerolog.Logger
}

// QuizService contains the quiz use cases: starting sessions, handing off
// submissions and scoring reports.
type QuizService struct {
	sessions    SessionRepository
	source      QuestionSource
	submissions SubmissionRepository
	validate    *validator.Validate
	opts        Options
	log         zerolog.Logger

	randMu sync.Mutex // guards opts.Rand
}

func NewQuizService(sessions SessionRepository, source QuestionSource, submissions SubmissionRepository, opts Options) *QuizService {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = TimeLimitSeconds
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = BatchSize
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	return &QuizService{
		sessions:    sessions,
		source:      source,
		submissions: submissions,
		validate:    validator.New(),
		opts:        opts,
		log:         opts.Logger.With().Str("component", "quiz_service").Logger(),
	}
}

// StartSession fetches a question batch and starts a timed session for userID.
// Any source failure yields domain.ErrSourceUnavailable and no session is created.
func (s *QuizService) StartSession(ctx context.Context, userID string) (*Session, error) {
	userID, err := s.normalizeUser(userID)
	if err != nil {
		return nil, err
	}

	raws, err := s.source.FetchQuestions(ctx, s.opts.BatchSize)
	if err != nil {
		s.log.Warn().Err(err).Msg("question fetch failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	s.randMu.Lock()
	normalized := NormalizeBatch(raws, s.opts.Rand)
	s.randMu.Unlock()

	questions := make([]domain.Question, 0, len(normalized))
	for _, q := range normalized {
		if len(q.Options) < 2 || q.CorrectIndex < 0 {
			s.log.Warn().Str("question_id", q.ID).Msg("dropping question without enough options")
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		s.log.Warn().Int("raw_count", len(raws)).Msg("question source returned no usable questions")
		return nil, domain.ErrSourceUnavailable
	}

	session, err := NewSession(SessionConfig{
		ID:        s.opts.NewID(),
		UserID:    userID,
		Questions: questions,
		TimeLimit: s.opts.TimeLimit,
		Scheduler: s.opts.Scheduler,
		Now:       s.opts.Now,
	})
	if err != nil {
		return nil, err
	}
	session.OnCompleted(s.handoff)

	s.sessions.Put(session)
	if err := session.Start(); err != nil {
		s.sessions.Delete(session.ID())
		return nil, err
	}

	s.log.Info().
		Str("session_id", session.ID()).
		Str("user", userID).
		Int("questions", len(questions)).
		Msg("session started")
	return session, nil
}

// Session returns a live session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Abandon tears a live session down without a submission.
func (s *QuizService) Abandon(sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Abandon()
	s.sessions.Delete(sessionID)
	s.log.Info().Str("session_id", sessionID).Msg("session abandoned")
	return nil
}

// Report scores the stored submission of a completed session.
func (s *QuizService) Report(ctx context.Context, sessionID string) (domain.Report, error) {
	sub, err := s.submissions.GetSubmission(ctx, sessionID)
	if err != nil {
		return domain.Report{}, err
	}
	return Score(sub), nil
}

// Close abandons every live session so no countdown outlives the service.
func (s *QuizService) Close() {
	for _, session := range s.sessions.List() {
		session.Abandon()
		s.sessions.Delete(session.ID())
	}
}

// handoff stores the submission once and discards the live session.
func (s *QuizService) handoff(sub domain.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()

	if err := s.submissions.SaveSubmission(ctx, sub); err != nil {
		s.log.Error().Err(err).Str("session_id", sub.SessionID).Msg("failed to store submission")
	} else {
		s.log.Info().
			Str("session_id", sub.SessionID).
			Str("reason", string(sub.Reason)).
			Int("answered", sub.AnsweredCount).
			Int("time_taken", sub.TimeTakenSeconds).
			Msg("session submitted")
	}
	s.sessions.Delete(sub.SessionID)
}

func (s *QuizService) normalizeUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if err := s.validate.Var(userID, "required,email"); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidUser, userID)
	}
	return userID, nil
}
