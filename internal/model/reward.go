package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parent_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PointsCost  int       `json:"points_cost"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserRewardStatus string

const (
	UserRewardRedeemed  UserRewardStatus = "REDEEMED"
	UserRewardCompleted UserRewardStatus = "COMPLETED"
)

// UserReward is a redemption. RewardID goes nil when the definition is
// deleted; RewardTitle and PointsSpent keep the snapshot.
type UserReward struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	RewardID    *int64           `json:"reward_id"`
	RewardTitle string           `json:"reward_title"`
	PointsSpent int              `json:"points_spent"`
	Status      UserRewardStatus `json:"status"`
	RedeemedAt  time.Time        `json:"redeemed_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}
