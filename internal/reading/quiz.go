package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/pagequest/internal/metrics"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// Quiz states for a (user, book) pair.
const (
	QuizAvailable = "AVAILABLE"
	QuizCooldown  = "COOLDOWN"
	QuizPassed    = "PASSED"
)

type QuizStatus struct {
	Status     string     `json:"status"`
	Attempts   int        `json:"attempts"`
	CanRetryAt *time.Time `json:"can_retry_at,omitempty"`
	PassedAt   *time.Time `json:"passed_at,omitempty"`
}

// classifyQuiz applies the gate's precedence: any passed attempt locks the
// pair; otherwise the newest failed attempt decides the cooldown.
func classifyQuiz(attempts []model.QuizAttempt, now time.Time) QuizStatus {
	qs := QuizStatus{Status: QuizAvailable, Attempts: len(attempts)}
	var latest *model.QuizAttempt
	for i := range attempts {
		a := &attempts[i]
		if a.Passed {
			at := a.CreatedAt
			return QuizStatus{Status: QuizPassed, Attempts: len(attempts), PassedAt: &at}
		}
		if latest == nil || !a.CreatedAt.Before(latest.CreatedAt) {
			latest = a
		}
	}
	if latest != nil && latest.CanRetryAt != nil && latest.CanRetryAt.After(now) {
		qs.Status = QuizCooldown
		at := *latest.CanRetryAt
		qs.CanRetryAt = &at
	}
	return qs
}

// QuizStatus reports where userID stands on bookID's quiz.
func (s *Service) QuizStatus(ctx context.Context, userID, bookID int64) (*QuizStatus, error) {
	book, err := s.store.Books.GetByID(bookID)
	if err != nil {
		return nil, err
	}
	if book == nil || book.UserID != userID {
		return nil, notFound("book not found")
	}
	attempts, err := s.store.Quizzes.ListByPair(userID, bookID)
	if err != nil {
		return nil, err
	}
	qs := classifyQuiz(attempts, s.Now())
	return &qs, nil
}

// SubmitQuiz records a scored attempt. Only a perfect score passes. A pass
// credits the configured points and locks the pair; a failure starts the
// cooldown.
func (s *Service) SubmitQuiz(ctx context.Context, userID, bookID int64, score, total int) (*model.QuizAttempt, error) {
	if total < 1 {
		return nil, invalid("total questions must be at least 1")
	}
	if score < 0 || score > total {
		return nil, invalid("score must be between 0 and %d", total)
	}
	now := s.Now()

	var (
		attempt *model.QuizAttempt
		user    *model.User
		book    *model.Book
	)
	err := s.inTx(ctx, func(st *store.Stores) error {
		var err error
		book, err = st.Books.GetByID(bookID)
		if err != nil {
			return err
		}
		if book == nil || book.UserID != userID {
			return notFound("book not found")
		}
		user, err = loadUser(st, userID)
		if err != nil {
			return err
		}

		prior, err := st.Quizzes.ListByPair(userID, bookID)
		if err != nil {
			return err
		}
		switch qs := classifyQuiz(prior, now); qs.Status {
		case QuizPassed:
			return newError(ErrAlreadyCompleted, "quiz already passed for this book")
		case QuizCooldown:
			e := newError(ErrOnCooldown, "quiz on cooldown, retry in %s", qs.CanRetryAt.Sub(now).Round(time.Minute))
			e.RetryAt = qs.CanRetryAt
			return e
		}

		a := &model.QuizAttempt{
			UserID:         userID,
			BookID:         bookID,
			Score:          score,
			TotalQuestions: total,
			Passed:         score == total,
			CreatedAt:      now,
		}
		if a.Passed {
			a.PointsEarned = s.cfg.QuizPassPoints
			if err := st.Users.AddPoints(userID, a.PointsEarned); err != nil {
				return err
			}
		} else {
			retry := now.Add(s.cfg.QuizCooldown)
			a.CanRetryAt = &retry
		}

		attempt, err = st.Quizzes.Create(a)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.QuizAttempt(attempt.Passed)
	if attempt.Passed {
		metrics.PointsAwarded(metrics.SourceQuiz, attempt.PointsEarned)
		s.notifyParent(user, model.NotifQuizPassed,
			fmt.Sprintf("%s passed the quiz for %q and earned %d points", user.Name, book.Title, attempt.PointsEarned))
	} else {
		s.notifyParent(user, model.NotifQuizFailed,
			fmt.Sprintf("%s scored %d/%d on the quiz for %q", user.Name, score, total, book.Title))
	}
	s.logger.Info("quiz attempt recorded",
		"user_id", userID,
		"book_id", bookID,
		"score", score,
		"total", total,
		"passed", attempt.Passed,
	)
	return attempt, nil
}
