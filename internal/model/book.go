package model

import "time"

type BookStatus string

const (
	BookPending  BookStatus = "PENDING"
	BookApproved BookStatus = "APPROVED"
	BookRejected BookStatus = "REJECTED"
)

type Book struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	PageCount int        `json:"page_count"`
	Status    BookStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
