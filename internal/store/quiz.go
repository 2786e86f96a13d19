package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/pagequest/internal/model"
)

type QuizStore struct {
	db DBTX
}

func NewQuizStore(db DBTX) *QuizStore {
	return &QuizStore{db: db}
}

func scanQuizAttempt(scanner interface{ Scan(...any) error }) (*model.QuizAttempt, error) {
	var q model.QuizAttempt
	var passed int
	var retry sql.NullTime

	err := scanner.Scan(&q.ID, &q.UserID, &q.BookID, &q.Score, &q.TotalQuestions, &passed, &q.PointsEarned, &retry, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	q.Passed = passed != 0
	if retry.Valid {
		q.CanRetryAt = &retry.Time
	}
	return &q, nil
}

const quizAttemptCols = `id, user_id, book_id, score, total_questions, passed, points_earned, can_retry_at, created_at`

func (s *QuizStore) Create(q *model.QuizAttempt) (*model.QuizAttempt, error) {
	result, err := s.db.Exec(
		`INSERT INTO quiz_attempts (user_id, book_id, score, total_questions, passed, points_earned, can_retry_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.UserID, q.BookID, q.Score, q.TotalQuestions, boolInt(q.Passed), q.PointsEarned,
		nullTime(q.CanRetryAt), q.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quiz attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+quizAttemptCols+` FROM quiz_attempts WHERE id = ?`, id)
	created, err := scanQuizAttempt(row)
	if err != nil {
		return nil, fmt.Errorf("get quiz attempt: %w", err)
	}
	return created, nil
}

// ListByPair returns every attempt for a (user, book) pair, oldest first.
func (s *QuizStore) ListByPair(userID, bookID int64) ([]model.QuizAttempt, error) {
	rows, err := s.db.Query(
		`SELECT `+quizAttemptCols+` FROM quiz_attempts WHERE user_id = ? AND book_id = ? ORDER BY created_at ASC, id ASC`,
		userID, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		q, err := scanQuizAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		attempts = append(attempts, *q)
	}
	return attempts, rows.Err()
}
