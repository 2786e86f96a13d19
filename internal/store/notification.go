package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type NotificationStore struct {
	db DBTX
}

func NewNotificationStore(db DBTX) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var readAt sql.NullTime

	if err := scanner.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &readAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

const notificationCols = `id, user_id, kind, message, read_at, created_at`

func (s *NotificationStore) Create(userID int64, kind, message string) (*model.Notification, error) {
	result, err := s.db.Exec(
		`INSERT INTO notifications (user_id, kind, message) VALUES (?, ?, ?)`,
		userID, kind, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationStore) ListByUser(userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationCols + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

// MarkRead stamps read_at on a notification owned by userID. It reports
// false when no such unread notification exists.
func (s *NotificationStore) MarkRead(id, userID int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read_at = ? WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		at.UTC(), id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read rows affected: %w", err)
	}
	return n == 1, nil
}
