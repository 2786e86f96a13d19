package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type ReadingSessionStore struct {
	db DBTX
}

func NewReadingSessionStore(db DBTX) *ReadingSessionStore {
	return &ReadingSessionStore{db: db}
}

func scanReadingSession(scanner interface{ Scan(...any) error }) (*model.ReadingSession, error) {
	var r model.ReadingSession
	var verified int
	var source string

	err := scanner.Scan(
		&r.ID, &r.UserID, &r.BookID, &r.StartTime, &r.EndTime, &r.DurationMinutes,
		&r.PointsEarned, &verified, &source, &r.Notes, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Verified = verified != 0
	r.Source = model.SessionSource(source)
	return &r, nil
}

const readingSessionCols = `id, user_id, book_id, start_time, end_time, duration_minutes, points_earned, verified, source, notes, created_at`

// Create inserts a finalized session. Only ID and CreatedAt are taken from
// the database.
func (s *ReadingSessionStore) Create(r *model.ReadingSession) (*model.ReadingSession, error) {
	result, err := s.db.Exec(
		`INSERT INTO reading_sessions (user_id, book_id, start_time, end_time, duration_minutes, points_earned, verified, source, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.BookID, r.StartTime.UTC(), r.EndTime.UTC(), r.DurationMinutes,
		r.PointsEarned, boolInt(r.Verified), string(r.Source), r.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reading session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReadingSessionStore) GetByID(id int64) (*model.ReadingSession, error) {
	row := s.db.QueryRow(`SELECT `+readingSessionCols+` FROM reading_sessions WHERE id = ?`, id)
	r, err := scanReadingSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reading session: %w", err)
	}
	return r, nil
}

// ListByUser returns a user's sessions, newest first. A non-nil since
// restricts to sessions that started at or after it.
func (s *ReadingSessionStore) ListByUser(userID int64, since *time.Time, limit int) ([]model.ReadingSession, error) {
	query := `SELECT ` + readingSessionCols + ` FROM reading_sessions WHERE user_id = ?`
	args := []any{userID}
	if since != nil {
		query += ` AND start_time >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reading sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.ReadingSession
	for rows.Next() {
		r, err := scanReadingSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading session: %w", err)
		}
		sessions = append(sessions, *r)
	}
	return sessions, rows.Err()
}

func (s *ReadingSessionStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM reading_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reading session: %w", err)
	}
	return expectOneRow(result, "delete reading session")
}
