package userdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course-middleware/models"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS user_progress (
	user_id VARCHAR ( 36 ) PRIMARY KEY,
	completed_lessons TEXT[] NOT NULL DEFAULT '{}',
	last_lesson JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const selectProgressSQL = `SELECT completed_lessons, last_lesson, updated_at FROM user_progress WHERE user_id=$1`

const upsertProgressSQL = `INSERT INTO user_progress (user_id, completed_lessons, last_lesson, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
	completed_lessons = EXCLUDED.completed_lessons,
	last_lesson = EXCLUDED.last_lesson,
	updated_at = EXCLUDED.updated_at`

// DB is the part of a pgx pool or connection the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store keeps per-user lesson progress keyed by identity provider user id.
type Store struct {
	db  DB
	now func() time.Time
}

func NewStore(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Connect opens a pool for connStr and makes sure the progress table exists.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, *Store, error) {
	// https://github.com/jackc/pgx#example-usage
	pool, err := pgxpool.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	store := NewStore(pool)
	err = store.EnsureSchema(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, store, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// GetProgress returns the stored progress for userID. A user without a row
// gets an empty list and no last lesson.
func (s *Store) GetProgress(ctx context.Context, userID string) (models.Progress, error) {
	progress := models.Progress{UserID: userID, CompletedLessons: []string{}}

	var (
		completed []string
		last      []byte
		updatedAt time.Time
	)
	err := s.db.QueryRow(ctx, selectProgressSQL, userID).Scan(&completed, &last, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress, nil
		}
		return progress, fmt.Errorf("failed to query progress for user %v: %w", userID, err)
	}

	if completed != nil {
		progress.CompletedLessons = completed
	}
	progress.UpdatedAt = updatedAt
	if len(last) > 0 && string(last) != "null" {
		ll := &models.LastLesson{}
		if err := json.Unmarshal(last, ll); err != nil {
			return progress, fmt.Errorf("failed to decode last lesson for user %v: %w", userID, err)
		}
		progress.LastLesson = ll
	}
	return progress, nil
}

// SetProgress replaces the stored progress for userID.
func (s *Store) SetProgress(ctx context.Context, userID string, update models.ProgressUpdate) error {
	completed := dedupe(update.CompletedLessons)

	var last interface{}
	if update.LastLesson != nil {
		b, err := json.Marshal(update.LastLesson)
		if err != nil {
			return fmt.Errorf("failed to encode last lesson: %w", err)
		}
		last = string(b)
	}

	_, err := s.db.Exec(ctx, upsertProgressSQL, userID, completed, last, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert progress for user %v: %w", userID, err)
	}
	return nil
}

// dedupe drops repeated lesson ids while keeping first-seen order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
