package reading

import (
	"context"
	"fmt"

	"github.com/dukerupert/pagequest/internal/metrics"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// Redeem spends a child's points on one of their parent's rewards. The
// balance check is a conditional update, so a concurrent spend can never
// take the balance below zero.
func (s *Service) Redeem(ctx context.Context, childID, rewardID int64) (*model.UserReward, error) {
	now := s.Now()

	var (
		ur    *model.UserReward
		child *model.User
	)
	err := s.inTx(ctx, func(st *store.Stores) error {
		var err error
		child, err = loadUser(st, childID)
		if err != nil {
			return err
		}
		if child.Role != model.RoleChild {
			return forbidden("only children can redeem rewards")
		}

		reward, err := st.Rewards.GetByID(rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return notFound("reward not found")
		}
		if child.ParentID == nil || *child.ParentID != reward.ParentID {
			return forbidden("reward does not belong to your family")
		}

		ok, err := st.Users.SpendPoints(childID, reward.PointsCost)
		if err != nil {
			return err
		}
		if !ok {
			e := newError(ErrInsufficientPoints, "not enough points: need %d, have %d", reward.PointsCost, child.Points)
			e.Shortfall = reward.PointsCost - child.Points
			return e
		}

		ur, err = st.Rewards.CreateUserReward(childID, reward, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RewardRedeemed()
	s.notifyParent(child, model.NotifRewardRedeemed,
		fmt.Sprintf("%s redeemed %q for %d points", child.Name, ur.RewardTitle, ur.PointsSpent))
	s.logger.Info("reward redeemed", "user_id", childID, "user_reward_id", ur.ID, "points", ur.PointsSpent)
	return ur, nil
}

// CompleteReward marks a redemption fulfilled. Only the redeemer's parent
// may do this; points are not touched.
func (s *Service) CompleteReward(ctx context.Context, parentID, userRewardID int64) (*model.UserReward, error) {
	now := s.Now()

	var ur *model.UserReward
	err := s.inTx(ctx, func(st *store.Stores) error {
		var err error
		ur, err = st.Rewards.GetUserReward(userRewardID)
		if err != nil {
			return err
		}
		if ur == nil {
			return notFound("redemption not found")
		}
		owner, err := loadUser(st, ur.UserID)
		if err != nil {
			return err
		}
		if owner.ParentID == nil || *owner.ParentID != parentID {
			return forbidden("only the child's parent can complete this reward")
		}

		ok, err := st.Rewards.Complete(ur.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return newError(ErrAlreadyCompleted, "reward already completed")
		}
		ur, err = st.Rewards.GetUserReward(ur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RewardCompleted()
	s.notify(ur.UserID, model.NotifRewardCompleted, fmt.Sprintf("Your reward %q is ready!", ur.RewardTitle))
	s.logger.Info("reward completed", "user_id", ur.UserID, "user_reward_id", ur.ID)
	return ur, nil
}
