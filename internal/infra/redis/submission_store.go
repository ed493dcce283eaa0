package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SubmissionStore keeps submissions in Redis as JSON under quiz:submission:{sessionID}.
// An optional durable backend receives every save and fills cache misses.
type SubmissionStore struct {
	client  *redis.Client
	backend app.SubmissionRepository
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewSubmissionStore(client *redis.Client, backend app.SubmissionRepository, ttl time.Duration) *SubmissionStore {
	return &SubmissionStore{
		client:  client,
		backend: backend,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SubmissionStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	if s.backend != nil {
		if err := s.backend.SaveSubmission(ctx, sub); err != nil {
			return err
		}
	}
	return s.cache(ctx, sub)
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, sessionID string) (domain.Submission, error) {
	sub, ok, err := s.lookup(ctx, sessionID)
	if err == nil && ok {
		return sub, nil
	}
	if s.backend == nil {
		if err != nil {
			return domain.Submission{}, err
		}
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}

	result, err, _ := s.sf.Do(sessionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sub, ok, err := s.lookup(ctx, sessionID); err == nil && ok {
			return sub, nil
		}
		sub, err := s.backend.GetSubmission(ctx, sessionID)
		if err != nil {
			return domain.Submission{}, err
		}
		_ = s.cache(ctx, sub)
		return sub, nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return result.(domain.Submission), nil
}

func (s *SubmissionStore) lookup(ctx context.Context, sessionID string) (domain.Submission, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Submission{}, false, nil
	}
	if err != nil {
		return domain.Submission{}, false, fmt.Errorf("get submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, false, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, true, nil
}

func (s *SubmissionStore) cache(ctx context.Context, sub domain.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sub.SessionID), raw, s.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("set submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) key(sessionID string) string {
	return "quiz:submission:" + sessionID
}

func (s *SubmissionStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
