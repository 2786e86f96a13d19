// Package reading implements the accounting core: reading sessions from
// both the manual and the device path, the quiz gate and the reward
// ledger. Every operation that touches more than one row runs in a single
// transaction.
package reading

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/pagequest/internal/engagement"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type Config struct {
	// DefaultLocation is used for day boundaries when neither the user nor
	// their parent has a timezone.
	DefaultLocation *time.Location
	// DeviceStreakBonus applies the streak multiplier on the device path.
	DeviceStreakBonus bool
	QuizPassPoints    int
	QuizCooldown      time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultLocation: time.UTC,
		QuizPassPoints:  50,
		QuizCooldown:    12 * time.Hour,
	}
}

type Service struct {
	db     *sql.DB
	store  *store.Stores
	eval   *engagement.Evaluator
	cfg    Config
	logger *slog.Logger

	// Now is the server clock. Tests replace it.
	Now func() time.Time
}

func NewService(db *sql.DB, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	return &Service{
		db:     db,
		store:  store.New(db),
		eval:   engagement.NewEvaluator(logger),
		cfg:    cfg,
		logger: logger.With("component", "reading"),
		Now:    time.Now,
	}
}

func (s *Service) inTx(ctx context.Context, fn func(*store.Stores) error) error {
	return store.WithTx(ctx, s.db, fn)
}

// location resolves the timezone that defines a user's calendar day: their
// own, then their parent's, then the configured default.
func (s *Service) location(st *store.Stores, u *model.User) *time.Location {
	name := u.Timezone
	if name == "" && u.ParentID != nil {
		parent, err := st.Users.GetByID(*u.ParentID)
		if err != nil {
			s.logger.Warn("load parent timezone", "user_id", u.ID, "error", err)
		} else if parent != nil {
			name = parent.Timezone
		}
	}
	if name == "" {
		return s.cfg.DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("invalid timezone, using default", "user_id", u.ID, "timezone", name, "error", err)
		return s.cfg.DefaultLocation
	}
	return loc
}

// SessionResult is the outcome of one committed reading session.
type SessionResult struct {
	Session      *model.ReadingSession `json:"session"`
	StreakDays   int                   `json:"streak_days"`
	Multiplier   float64               `json:"multiplier"`
	Achievements []model.Achievement   `json:"achievements"`
}

type sessionInput struct {
	bookID   int64
	start    time.Time
	end      time.Time
	minutes  int
	source   model.SessionSource
	verified bool
	notes    string
	bonus    bool
}

// record is the single accounting write shared by both entry points: the
// immutable session row, the four user aggregates and the achievement
// scan, all on the caller's transaction.
func (s *Service) record(st *store.Stores, u *model.User, in sessionInput, now time.Time) (*SessionResult, error) {
	out := engagement.Calculate(u.LastReadDate, u.StreakDays, now, s.location(st, u), in.minutes, in.bonus)

	sess, err := st.Reading.Create(&model.ReadingSession{
		UserID:          u.ID,
		BookID:          in.bookID,
		StartTime:       in.start,
		EndTime:         in.end,
		DurationMinutes: in.minutes,
		PointsEarned:    out.Points,
		Verified:        in.verified,
		Source:          in.source,
		Notes:           in.notes,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Users.ApplySession(u.ID, out.Points, in.minutes, out.Streak, out.Day); err != nil {
		return nil, err
	}

	// Later writes in the same transaction must see the new aggregates.
	u.Points += out.Points
	u.TotalMinutes += in.minutes
	u.StreakDays = out.Streak
	day := out.Day
	u.LastReadDate = &day

	awarded, err := s.eval.Evaluate(st, u.ID, in.minutes, now)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		Session:      sess,
		StreakDays:   out.Streak,
		Multiplier:   out.Multiplier.Float64(),
		Achievements: awarded,
	}, nil
}

// notify writes a notification outside any accounting transaction. A
// failure is logged and otherwise ignored.
func (s *Service) notify(userID int64, kind, message string) {
	if _, err := s.store.Notifications.Create(userID, kind, message); err != nil {
		s.logger.Error("create notification", "user_id", userID, "kind", kind, "error", err)
	}
}

// notifyParent notifies a child's linked parent, if any.
func (s *Service) notifyParent(child *model.User, kind, message string) {
	if child.ParentID == nil {
		return
	}
	s.notify(*child.ParentID, kind, message)
}

// loadUser fetches a user or returns a NotFound error.
func loadUser(st *store.Stores, id int64) (*model.User, error) {
	u, err := st.Users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user not found")
	}
	return u, nil
}
