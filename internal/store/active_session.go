package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type ActiveSessionStore struct {
	db DBTX
}

func NewActiveSessionStore(db DBTX) *ActiveSessionStore {
	return &ActiveSessionStore{db: db}
}

const activeSessionCols = `id, user_id, book_id, start_time, created_at`

// GetByUser returns the user's open session, or nil.
func (s *ActiveSessionStore) GetByUser(userID int64) (*model.ActiveReadingSession, error) {
	var a model.ActiveReadingSession
	err := s.db.QueryRow(
		`SELECT `+activeSessionCols+` FROM active_reading_sessions WHERE user_id = ?`, userID,
	).Scan(&a.ID, &a.UserID, &a.BookID, &a.StartTime, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return &a, nil
}

// Create opens a session. It fails if the user already has one; callers
// close the previous session first.
func (s *ActiveSessionStore) Create(userID, bookID int64, start time.Time) (*model.ActiveReadingSession, error) {
	_, err := s.db.Exec(
		`INSERT INTO active_reading_sessions (user_id, book_id, start_time) VALUES (?, ?, ?)`,
		userID, bookID, start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert active session: %w", err)
	}
	return s.GetByUser(userID)
}

func (s *ActiveSessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM active_reading_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete active session: %w", err)
	}
	return nil
}
