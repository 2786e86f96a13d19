package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pagequest/internal/model"
)

type DeviceTokenStore struct {
	db DBTX
}

func NewDeviceTokenStore(db DBTX) *DeviceTokenStore {
	return &DeviceTokenStore{db: db}
}

// HashDeviceToken is the digest stored in place of the raw bearer token.
func HashDeviceToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func scanDeviceToken(scanner interface{ Scan(...any) error }) (*model.DeviceToken, error) {
	var d model.DeviceToken
	var lastUsed, revoked sql.NullTime

	err := scanner.Scan(&d.ID, &d.PublicID, &d.ChildID, &d.Name, &lastUsed, &revoked, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		d.LastUsedAt = &lastUsed.Time
	}
	if revoked.Valid {
		d.RevokedAt = &revoked.Time
	}
	return &d, nil
}

const deviceTokenCols = `id, public_id, child_id, name, last_used_at, revoked_at, created_at`

// Create issues a new token for a child. The raw token is returned once
// and never stored.
func (s *DeviceTokenStore) Create(childID int64, name string) (*model.DeviceToken, string, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate device token: %w", err)
	}
	publicID := uuid.New().String()

	result, err := s.db.Exec(
		`INSERT INTO device_tokens (public_id, child_id, name, token_hash) VALUES (?, ?, ?, ?)`,
		publicID, childID, name, HashDeviceToken(raw),
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert device token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, "", fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+deviceTokenCols+` FROM device_tokens WHERE id = ?`, id)
	d, err := scanDeviceToken(row)
	if err != nil {
		return nil, "", fmt.Errorf("get device token: %w", err)
	}
	return d, raw, nil
}

// GetByRawToken resolves a bearer token. Revoked and unknown tokens
// return nil.
func (s *DeviceTokenStore) GetByRawToken(raw string) (*model.DeviceToken, error) {
	row := s.db.QueryRow(
		`SELECT `+deviceTokenCols+` FROM device_tokens WHERE token_hash = ? AND revoked_at IS NULL`,
		HashDeviceToken(raw),
	)
	d, err := scanDeviceToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device token: %w", err)
	}
	return d, nil
}

func (s *DeviceTokenStore) GetByPublicID(publicID string) (*model.DeviceToken, error) {
	row := s.db.QueryRow(`SELECT `+deviceTokenCols+` FROM device_tokens WHERE public_id = ?`, publicID)
	d, err := scanDeviceToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device token by public id: %w", err)
	}
	return d, nil
}

func (s *DeviceTokenStore) Touch(id int64, at time.Time) error {
	_, err := s.db.Exec(`UPDATE device_tokens SET last_used_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch device token: %w", err)
	}
	return nil
}

// Revoke reports false when the token does not exist or is already revoked.
func (s *DeviceTokenStore) Revoke(publicID string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE device_tokens SET revoked_at = ? WHERE public_id = ? AND revoked_at IS NULL`,
		at.UTC(), publicID,
	)
	if err != nil {
		return false, fmt.Errorf("revoke device token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke device token rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *DeviceTokenStore) ListByChild(childID int64) ([]model.DeviceToken, error) {
	rows, err := s.db.Query(
		`SELECT `+deviceTokenCols+` FROM device_tokens WHERE child_id = ? ORDER BY created_at DESC, id DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	var list []model.DeviceToken
	for rows.Next() {
		d, err := scanDeviceToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}
