package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SubmissionStore keeps submissions in memory with a TTL. When a backend is
// configured, saves are written through and misses are loaded from it.
type SubmissionStore struct {
	backend app.SubmissionRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedSubmission
}

type cachedSubmission struct {
	sub       domain.Submission
	expiresAt time.Time
}

// NewSubmissionStore builds a store. backend may be nil; ttl <= 0 keeps entries forever.
func NewSubmissionStore(backend app.SubmissionRepository, ttl time.Duration) *SubmissionStore {
	return &SubmissionStore{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedSubmission),
	}
}

func (s *SubmissionStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	if s.backend != nil {
		if err := s.backend.SaveSubmission(ctx, sub); err != nil {
			return err
		}
	}
	s.put(sub, s.clock())
	return nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, sessionID string) (domain.Submission, error) {
	if sub, ok := s.lookup(sessionID, s.clock()); ok {
		return sub, nil
	}
	if s.backend == nil {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}

	result, err, _ := s.sf.Do(sessionID, func() (interface{}, error) {
		now := s.clock()
		if sub, ok := s.lookup(sessionID, now); ok {
			return sub, nil
		}
		sub, err := s.backend.GetSubmission(ctx, sessionID)
		if err != nil {
			return domain.Submission{}, err
		}
		s.put(sub, now)
		return sub, nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return result.(domain.Submission), nil
}

func (s *SubmissionStore) lookup(sessionID string, now time.Time) (domain.Submission, bool) {
	s.mu.RLock()
	entry, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.Submission{}, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.cache, sessionID)
		s.mu.Unlock()
		return domain.Submission{}, false
	}
	return entry.sub, true
}

func (s *SubmissionStore) put(sub domain.Submission, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := cachedSubmission{sub: sub}
	if ttl := s.ttlWithJitter(); ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.cache[sub.SessionID] = entry
}

// ttlWithJitter expects s.mu held; rand.Rand is not safe for concurrent use.
func (s *SubmissionStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
