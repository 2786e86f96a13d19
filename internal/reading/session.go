package reading

import (
	"context"
	"time"

	"github.com/dukerupert/pagequest/internal/metrics"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// MaxSessionMinutes caps a single manual session at one day.
const MaxSessionMinutes = 24 * 60

// durationTolerance is how far a submitted duration may drift from the
// elapsed wall-clock minutes.
const durationTolerance = 1

type CreateSessionInput struct {
	BookID          int64
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Notes           string
}

// CreateSession records a manually timed session for userID. Checks run in
// a fixed order and the first failure is returned; nothing is written
// unless all of them pass.
func (s *Service) CreateSession(ctx context.Context, userID int64, in CreateSessionInput) (*SessionResult, error) {
	now := s.Now()

	var result *SessionResult
	err := s.inTx(ctx, func(st *store.Stores) error {
		book, err := st.Books.GetByID(in.BookID)
		if err != nil {
			return err
		}
		if book == nil || book.UserID != userID {
			return notFound("book not found")
		}
		if book.Status != model.BookApproved {
			return newError(ErrBookNotApproved, "book must be approved before reading")
		}
		if err := validateInterval(in, now); err != nil {
			return err
		}

		user, err := loadUser(st, userID)
		if err != nil {
			return err
		}

		result, err = s.record(st, user, sessionInput{
			bookID:  book.ID,
			start:   in.StartTime,
			end:     in.EndTime,
			minutes: in.DurationMinutes,
			source:  model.SourceManual,
			notes:   in.Notes,
			bonus:   true,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionRecorded(metrics.SourceManual, result.Session.DurationMinutes, result.Session.PointsEarned)
	metrics.AchievementsAwarded(len(result.Achievements))
	s.logger.Info("session recorded",
		"user_id", userID,
		"session_id", result.Session.ID,
		"minutes", result.Session.DurationMinutes,
		"points", result.Session.PointsEarned,
		"streak", result.StreakDays,
	)
	return result, nil
}

func validateInterval(in CreateSessionInput, now time.Time) error {
	if !in.StartTime.Before(in.EndTime) {
		return invalid("start time must be before end time")
	}
	if in.EndTime.After(now) {
		return invalid("end time cannot be in the future")
	}
	elapsed := int(in.EndTime.Sub(in.StartTime) / time.Minute)
	diff := in.DurationMinutes - elapsed
	if diff < -durationTolerance || diff > durationTolerance {
		return invalid("duration mismatch: %d minutes submitted, %d elapsed", in.DurationMinutes, elapsed)
	}
	if in.DurationMinutes < 1 {
		return invalid("duration must be at least 1 minute")
	}
	if in.DurationMinutes > MaxSessionMinutes {
		return invalid("duration cannot exceed %d minutes", MaxSessionMinutes)
	}
	return nil
}

// DeleteSession removes a session and reverses its points and minutes.
// The streak is left as is. actorID must own the session or be the
// owner's parent.
func (s *Service) DeleteSession(ctx context.Context, actorID, sessionID int64) error {
	var sess *model.ReadingSession
	err := s.inTx(ctx, func(st *store.Stores) error {
		var err error
		sess, err = st.Reading.GetByID(sessionID)
		if err != nil {
			return err
		}
		if sess == nil {
			return notFound("session not found")
		}
		if err := authorizeOwnerOrParent(st, actorID, sess.UserID); err != nil {
			return err
		}
		if err := st.Users.ReverseSession(sess.UserID, sess.PointsEarned, sess.DurationMinutes); err != nil {
			return err
		}
		return st.Reading.Delete(sess.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("session deleted",
		"user_id", sess.UserID,
		"session_id", sess.ID,
		"points", sess.PointsEarned,
		"minutes", sess.DurationMinutes,
	)
	return nil
}

// ListSessions returns a reader's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, actorID, userID int64, limit int) ([]model.ReadingSession, error) {
	if err := authorizeOwnerOrParent(s.store, actorID, userID); err != nil {
		return nil, err
	}
	return s.store.Reading.ListByUser(userID, nil, limit)
}

// authorizeOwnerOrParent allows a user to act on their own records and a
// parent to act on their children's.
func authorizeOwnerOrParent(st *store.Stores, actorID, ownerID int64) error {
	if actorID == ownerID {
		return nil
	}
	owner, err := st.Users.GetByID(ownerID)
	if err != nil {
		return err
	}
	if owner == nil || owner.ParentID == nil || *owner.ParentID != actorID {
		return forbidden("not allowed to access this reader's sessions")
	}
	return nil
}
