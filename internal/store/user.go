package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var role string
	var parentID sql.NullInt64
	var lastRead sql.NullString

	err := scanner.Scan(
		&u.ID, &u.Username, &u.Name, &u.PasswordHash, &role, &parentID, &u.Timezone,
		&u.Points, &u.TotalMinutes, &u.StreakDays, &lastRead,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	if parentID.Valid {
		u.ParentID = &parentID.Int64
	}
	if lastRead.Valid && lastRead.String != "" {
		d, err := time.Parse(dateLayout, lastRead.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_read_date %q: %w", lastRead.String, err)
		}
		u.LastReadDate = &d
	}
	return &u, nil
}

const userCols = `id, username, name, password_hash, role, parent_id, timezone, points, total_minutes, streak_days, last_read_date, created_at, updated_at`

func (s *UserStore) Create(username, name, passwordHash string, role model.Role, parentID *int64, timezone string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, name, password_hash, role, parent_id, timezone) VALUES (?, ?, ?, ?, ?, ?)`,
		username, name, passwordHash, string(role), nullInt64(parentID), timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// ListChildren returns the children linked to a parent, ordered by name.
func (s *UserStore) ListChildren(parentID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE parent_id = ? AND role = 'CHILD' ORDER BY name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) SetTimezone(id int64, timezone string) error {
	_, err := s.db.Exec(`UPDATE users SET timezone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, timezone, id)
	if err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	return nil
}

// ApplySession writes the four accounting fields of a completed session in
// one statement: points and minutes are incremented, streak and last read
// date are replaced.
func (s *UserStore) ApplySession(id int64, points, minutes, streakDays int, readDate time.Time) error {
	result, err := s.db.Exec(
		`UPDATE users
		 SET points = points + ?, total_minutes = total_minutes + ?, streak_days = ?, last_read_date = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		points, minutes, streakDays, readDate.Format(dateLayout), id,
	)
	if err != nil {
		return fmt.Errorf("apply session: %w", err)
	}
	return expectOneRow(result, "apply session")
}

// ReverseSession removes a session's contribution. Both counters are
// clamped at zero.
func (s *UserStore) ReverseSession(id int64, points, minutes int) error {
	result, err := s.db.Exec(
		`UPDATE users
		 SET points = MAX(points - ?, 0), total_minutes = MAX(total_minutes - ?, 0),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		points, minutes, id,
	)
	if err != nil {
		return fmt.Errorf("reverse session: %w", err)
	}
	return expectOneRow(result, "reverse session")
}

func (s *UserStore) AddPoints(id int64, points int) error {
	result, err := s.db.Exec(
		`UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		points, id,
	)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return expectOneRow(result, "add points")
}

// SpendPoints deducts points only if the balance covers them. It reports
// false, without error, when the balance is too low.
func (s *UserStore) SpendPoints(id int64, points int) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE users SET points = points - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND points >= ?`,
		points, id, points,
	)
	if err != nil {
		return false, fmt.Errorf("spend points: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("spend points rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
