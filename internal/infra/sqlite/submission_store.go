package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SubmissionStore keeps a local archive of submissions in a SQLite file.
type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(path string) (*SubmissionStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz-history.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &SubmissionStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SubmissionStore) Close() error {
	return s.db.Close()
}

func (s *SubmissionStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			session_id TEXT PRIMARY KEY,
			user_email TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			correct_count INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			score REAL NOT NULL,
			time_taken INTEGER NOT NULL,
			reason TEXT NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user_submitted ON submissions(user_email, submitted_at_unix DESC);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSubmission stores the snapshot once; later saves for the session are ignored.
func (s *SubmissionStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	entry := app.Summarize(sub)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO submissions
			(session_id, user_email, payload_json, correct_count, total_questions, score, time_taken, reason, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.SessionID, sub.UserID, string(payload), entry.CorrectCount, entry.TotalQuestions,
		entry.ScorePercent, sub.TimeTakenSeconds, string(sub.Reason), sub.SubmittedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, sessionID string) (domain.Submission, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload_json FROM submissions WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_email, correct_count, total_questions, score, time_taken, reason, submitted_at_unix
		 FROM submissions
		 WHERE user_email = ?
		 ORDER BY submitted_at_unix DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			reason    string
			submitted int64
		)
		if err := rows.Scan(&e.SessionID, &e.UserID, &e.CorrectCount, &e.TotalQuestions,
			&e.ScorePercent, &e.TimeTakenSeconds, &reason, &submitted); err != nil {
			return nil, err
		}
		e.Reason = domain.SubmitReason(reason)
		e.SubmittedAt = time.UnixMilli(submitted).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
