package engagement

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// Kind is the statistic an achievement threshold is compared against.
type Kind string

const (
	KindTotalMinutes    Kind = "TOTAL_MINUTES"
	KindStreak          Kind = "STREAK"
	KindBooksRead       Kind = "BOOKS_READ"
	KindSessionDuration Kind = "SESSION_DURATION"
)

var kindAliases = map[string]Kind{
	"TOTAL_MINUTES":    KindTotalMinutes,
	"MINUTES":          KindTotalMinutes,
	"STREAK":           KindStreak,
	"BOOKS_READ":       KindBooksRead,
	"BOOKS":            KindBooksRead,
	"SESSION_DURATION": KindSessionDuration,
}

// ParseKind resolves a stored type string, including legacy aliases.
func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown achievement type %q", s)
	}
	return k, nil
}

// Stats is the snapshot an evaluation runs against. SessionMinutes is the
// length of the session that triggered the evaluation, or 0 for none.
type Stats struct {
	TotalMinutes   int
	StreakDays     int
	BooksRead      int
	SessionMinutes int
}

// Met reports whether stats satisfy a threshold of this kind.
func (k Kind) Met(s Stats, requirement int) bool {
	switch k {
	case KindTotalMinutes:
		return s.TotalMinutes >= requirement
	case KindStreak:
		return s.StreakDays >= requirement
	case KindBooksRead:
		return s.BooksRead >= requirement
	case KindSessionDuration:
		return s.SessionMinutes > 0 && s.SessionMinutes >= requirement
	}
	return false
}

// Evaluator awards catalog achievements whose thresholds are met.
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger.With("component", "achievements")}
}

// Evaluate scans the catalog for userID and returns the achievements newly
// awarded by this call. Already earned entries are skipped, so repeated
// calls with unchanged stats award nothing. Pass stores bound to the
// accounting transaction so the awards commit with it.
func (e *Evaluator) Evaluate(st *store.Stores, userID int64, sessionMinutes int, now time.Time) ([]model.Achievement, error) {
	user, err := st.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("evaluate achievements: user %d not found", userID)
	}

	books, err := st.Books.CountApproved(userID)
	if err != nil {
		return nil, err
	}
	stats := Stats{
		TotalMinutes:   user.TotalMinutes,
		StreakDays:     user.StreakDays,
		BooksRead:      books,
		SessionMinutes: sessionMinutes,
	}

	catalog, err := st.Achievements.List()
	if err != nil {
		return nil, err
	}
	earned, err := st.Achievements.EarnedIDs(userID)
	if err != nil {
		return nil, err
	}

	var awarded []model.Achievement
	for _, a := range catalog {
		if earned[a.ID] {
			continue
		}
		kind, err := ParseKind(a.Type)
		if err != nil {
			e.logger.Warn("skipping achievement", "achievement_id", a.ID, "name", a.Name, "error", err)
			continue
		}
		if !kind.Met(stats, a.Requirement) {
			continue
		}
		isNew, err := st.Achievements.Award(userID, a.ID, now)
		if err != nil {
			return nil, err
		}
		if isNew {
			awarded = append(awarded, a)
		}
	}
	return awarded, nil
}
