package model

import "time"

// SessionSource records which entry point produced a reading session.
type SessionSource string

const (
	SourceManual SessionSource = "MANUAL"
	SourceDevice SessionSource = "DEVICE"
)

type ReadingSession struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	BookID          int64         `json:"book_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	PointsEarned    int           `json:"points_earned"`
	Verified        bool          `json:"verified"`
	Source          SessionSource `json:"source"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ActiveReadingSession is an open device-reported interval. At most one
// exists per user.
type ActiveReadingSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	StartTime time.Time `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`
}
