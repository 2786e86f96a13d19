package model

import "time"

type Role string

const (
	RoleParent Role = "PARENT"
	RoleChild  Role = "CHILD"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	ParentID     *int64     `json:"parent_id"`
	Timezone     string     `json:"timezone"`
	Points       int        `json:"points"`
	TotalMinutes int        `json:"total_minutes"`
	StreakDays   int        `json:"streak_days"`
	LastReadDate *time.Time `json:"last_read_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsParentOf reports whether u is the linked parent of child.
func (u *User) IsParentOf(child *User) bool {
	return u.Role == RoleParent && child.ParentID != nil && *child.ParentID == u.ID
}

// Session is an authenticated browser session.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
