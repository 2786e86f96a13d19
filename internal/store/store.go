package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every store can run
// inside or outside a transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Stores bundles every store bound to the same handle.
type Stores struct {
	Users         *UserStore
	Sessions      *SessionStore
	Books         *BookStore
	Reading       *ReadingSessionStore
	Active        *ActiveSessionStore
	Achievements  *AchievementStore
	Rewards       *RewardStore
	Quizzes       *QuizStore
	Notifications *NotificationStore
	DeviceTokens  *DeviceTokenStore
}

func New(db DBTX) *Stores {
	return &Stores{
		Users:         NewUserStore(db),
		Sessions:      NewSessionStore(db),
		Books:         NewBookStore(db),
		Reading:       NewReadingSessionStore(db),
		Active:        NewActiveSessionStore(db),
		Achievements:  NewAchievementStore(db),
		Rewards:       NewRewardStore(db),
		Quizzes:       NewQuizStore(db),
		Notifications: NewNotificationStore(db),
		DeviceTokens:  NewDeviceTokenStore(db),
	}
}

// WithTx runs fn against stores bound to a single transaction. The
// transaction commits only if fn returns nil.
func WithTx(ctx context.Context, db *sql.DB, fn func(*Stores) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const dateLayout = "2006-01-02"

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectOneRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: %w", what, sql.ErrNoRows)
	}
	return nil
}
