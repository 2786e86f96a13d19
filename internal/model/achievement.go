package model

import "time"

type Achievement struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Requirement int       `json:"requirement"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserAchievement struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	AchievementID int64     `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}
