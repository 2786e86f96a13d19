package model

import "time"

type QuizAttempt struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	BookID         int64      `json:"book_id"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Passed         bool       `json:"passed"`
	PointsEarned   int        `json:"points_earned"`
	CanRetryAt     *time.Time `json:"can_retry_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
