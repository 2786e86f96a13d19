package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type AchievementStore struct {
	db DBTX
}

func NewAchievementStore(db DBTX) *AchievementStore {
	return &AchievementStore{db: db}
}

func scanAchievement(scanner interface{ Scan(...any) error }) (*model.Achievement, error) {
	var a model.Achievement
	err := scanner.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Requirement, &a.Type, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const achievementCols = `id, name, description, icon, requirement, type, created_at`

func (s *AchievementStore) Create(name, description, icon string, requirement int, kind string) (*model.Achievement, error) {
	result, err := s.db.Exec(
		`INSERT INTO achievements (name, description, icon, requirement, type) VALUES (?, ?, ?, ?, ?)`,
		name, description, icon, requirement, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("insert achievement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AchievementStore) GetByID(id int64) (*model.Achievement, error) {
	row := s.db.QueryRow(`SELECT `+achievementCols+` FROM achievements WHERE id = ?`, id)
	a, err := scanAchievement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement: %w", err)
	}
	return a, nil
}

// List returns the whole catalog ordered by type, then requirement.
func (s *AchievementStore) List() ([]model.Achievement, error) {
	rows, err := s.db.Query(`SELECT ` + achievementCols + ` FROM achievements ORDER BY type ASC, requirement ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var list []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// EarnedIDs returns the set of achievement IDs a user already holds.
func (s *AchievementStore) EarnedIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT achievement_id FROM user_achievements WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list earned achievement ids: %w", err)
	}
	defer rows.Close()

	earned := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan achievement id: %w", err)
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

// Award links an achievement to a user. It reports false when the pair
// already existed.
func (s *AchievementStore) Award(userID, achievementID int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO user_achievements (user_id, achievement_id, earned_at) VALUES (?, ?, ?)`,
		userID, achievementID, at.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award achievement rows affected: %w", err)
	}
	return n == 1, nil
}

// EarnedAchievement pairs a catalog entry with when the user earned it.
type EarnedAchievement struct {
	model.Achievement
	EarnedAt time.Time `json:"earned_at"`
}

func (s *AchievementStore) ListEarned(userID int64) ([]EarnedAchievement, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.name, a.description, a.icon, a.requirement, a.type, a.created_at, ua.earned_at
		 FROM user_achievements ua JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.earned_at ASC, a.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list earned achievements: %w", err)
	}
	defer rows.Close()

	var list []EarnedAchievement
	for rows.Next() {
		var e EarnedAchievement
		err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Icon, &e.Requirement, &e.Type, &e.CreatedAt, &e.EarnedAt)
		if err != nil {
			return nil, fmt.Errorf("scan earned achievement: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
