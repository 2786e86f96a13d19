package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/pagequest/internal/model"
)

type BookStore struct {
	db DBTX
}

func NewBookStore(db DBTX) *BookStore {
	return &BookStore{db: db}
}

func scanBook(scanner interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	var status string

	err := scanner.Scan(&b.ID, &b.UserID, &b.Title, &b.Author, &b.PageCount, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = model.BookStatus(status)
	return &b, nil
}

const bookCols = `id, user_id, title, author, page_count, status, created_at, updated_at`

func (s *BookStore) Create(userID int64, title, author string, pageCount int, status model.BookStatus) (*model.Book, error) {
	result, err := s.db.Exec(
		`INSERT INTO books (user_id, title, author, page_count, status) VALUES (?, ?, ?, ?, ?)`,
		userID, title, author, pageCount, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BookStore) GetByID(id int64) (*model.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookCols+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// ListByUser returns a user's books, oldest first. An empty status matches
// every status.
func (s *BookStore) ListByUser(userID int64, status model.BookStatus) ([]model.Book, error) {
	query := `SELECT ` + bookCols + ` FROM books WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// ListPendingForParent returns pending requests from all of a parent's
// children.
func (s *BookStore) ListPendingForParent(parentID int64) ([]model.Book, error) {
	rows, err := s.db.Query(
		`SELECT b.id, b.user_id, b.title, b.author, b.page_count, b.status, b.created_at, b.updated_at
		 FROM books b JOIN users u ON u.id = b.user_id
		 WHERE u.parent_id = ? AND b.status = 'PENDING'
		 ORDER BY b.created_at ASC, b.id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (s *BookStore) UpdateStatus(id int64, status model.BookStatus) error {
	result, err := s.db.Exec(
		`UPDATE books SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update book status: %w", err)
	}
	return expectOneRow(result, "update book status")
}

// CountApproved is the BOOKS_READ statistic.
func (s *BookStore) CountApproved(userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM books WHERE user_id = ? AND status = 'APPROVED'`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approved books: %w", err)
	}
	return n, nil
}

func (s *BookStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}
