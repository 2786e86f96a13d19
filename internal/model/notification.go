package model

import "time"

// Notification kind constants
const (
	NotifQuizPassed      = "quiz_passed"
	NotifQuizFailed      = "quiz_failed"
	NotifRewardRedeemed  = "reward_redeemed"
	NotifRewardCompleted = "reward_completed"
)

type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}
