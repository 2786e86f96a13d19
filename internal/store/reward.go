package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	err := scanner.Scan(&r.ID, &r.ParentID, &r.Title, &r.Description, &r.PointsCost, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const rewardCols = `id, parent_id, title, description, points_cost, created_at`

func (s *RewardStore) Create(parentID int64, title, description string, pointsCost int) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (parent_id, title, description, points_cost) VALUES (?, ?, ?, ?)`,
		parentID, title, description, pointsCost,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListByParent returns a parent's rewards, cheapest first.
func (s *RewardStore) ListByParent(parentID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE parent_id = ? ORDER BY points_cost ASC, title ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanUserReward(scanner interface{ Scan(...any) error }) (*model.UserReward, error) {
	var u model.UserReward
	var rewardID sql.NullInt64
	var status string
	var completedAt sql.NullTime

	err := scanner.Scan(&u.ID, &u.UserID, &rewardID, &u.RewardTitle, &u.PointsSpent, &status, &u.RedeemedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if rewardID.Valid {
		u.RewardID = &rewardID.Int64
	}
	u.Status = model.UserRewardStatus(status)
	if completedAt.Valid {
		u.CompletedAt = &completedAt.Time
	}
	return &u, nil
}

const userRewardCols = `id, user_id, reward_id, reward_title, points_spent, status, redeemed_at, completed_at`

// CreateUserReward records a redemption with a snapshot of the reward's
// title and cost.
func (s *RewardStore) CreateUserReward(userID int64, reward *model.Reward, at time.Time) (*model.UserReward, error) {
	result, err := s.db.Exec(
		`INSERT INTO user_rewards (user_id, reward_id, reward_title, points_spent, status, redeemed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, reward.ID, reward.Title, reward.PointsCost, string(model.UserRewardRedeemed), at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUserReward(id)
}

func (s *RewardStore) GetUserReward(id int64) (*model.UserReward, error) {
	row := s.db.QueryRow(`SELECT `+userRewardCols+` FROM user_rewards WHERE id = ?`, id)
	u, err := scanUserReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user reward: %w", err)
	}
	return u, nil
}

func (s *RewardStore) ListUserRewardsByUser(userID int64) ([]model.UserReward, error) {
	rows, err := s.db.Query(
		`SELECT `+userRewardCols+` FROM user_rewards WHERE user_id = ? ORDER BY redeemed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user rewards: %w", err)
	}
	defer rows.Close()
	return collectUserRewards(rows)
}

// ListUserRewardsByParent returns redemptions made by any of a parent's
// children.
func (s *RewardStore) ListUserRewardsByParent(parentID int64) ([]model.UserReward, error) {
	rows, err := s.db.Query(
		`SELECT ur.id, ur.user_id, ur.reward_id, ur.reward_title, ur.points_spent, ur.status, ur.redeemed_at, ur.completed_at
		 FROM user_rewards ur JOIN users u ON u.id = ur.user_id
		 WHERE u.parent_id = ?
		 ORDER BY ur.redeemed_at DESC, ur.id DESC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user rewards by parent: %w", err)
	}
	defer rows.Close()
	return collectUserRewards(rows)
}

func collectUserRewards(rows *sql.Rows) ([]model.UserReward, error) {
	var list []model.UserReward
	for rows.Next() {
		u, err := scanUserReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user reward: %w", err)
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// Complete moves a redemption from REDEEMED to COMPLETED. It reports false
// when the row was not in REDEEMED state.
func (s *RewardStore) Complete(id int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE user_rewards SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		string(model.UserRewardCompleted), at.UTC(), id, string(model.UserRewardRedeemed),
	)
	if err != nil {
		return false, fmt.Errorf("complete user reward: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete user reward rows affected: %w", err)
	}
	return n == 1, nil
}
