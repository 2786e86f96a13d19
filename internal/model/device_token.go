package model

import "time"

type DeviceToken struct {
	ID         int64      `json:"id"`
	PublicID   string     `json:"public_id"`
	ChildID    int64      `json:"child_id"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
