package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SubmissionStore archives submissions in Postgres. The full snapshot is kept as
// JSONB; score columns are denormalised for history listings.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// SaveSubmission inserts the snapshot. A second save for the same session is ignored.
func (s *SubmissionStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	entry := app.Summarize(sub)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_submissions
			(session_id, user_email, payload, correct_count, total_questions, score, time_taken, reason, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING`,
		sub.SessionID, sub.UserID, payload, entry.CorrectCount, entry.TotalQuestions,
		entry.ScorePercent, sub.TimeTakenSeconds, string(sub.Reason), sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, sessionID string) (domain.Submission, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM quiz_submissions WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, user_email, correct_count, total_questions, score, time_taken, reason, submitted_at
		FROM quiz_submissions
		WHERE user_email=$1
		ORDER BY submitted_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e      domain.HistoryEntry
			reason string
		)
		if err := rows.Scan(&e.SessionID, &e.UserID, &e.CorrectCount, &e.TotalQuestions,
			&e.ScorePercent, &e.TimeTakenSeconds, &reason, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Reason = domain.SubmitReason(reason)
		out = append(out, e)
	}
	return out, rows.Err()
}
