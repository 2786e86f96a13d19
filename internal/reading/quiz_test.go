package reading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/pagequest/internal/model"
)

func TestSubmitQuizPassAwardsPointsOnce(t *testing.T) {
	f := setup(t)
	book := f.approvedBook(t, "Holes")

	a, err := f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 5, 5)
	require.NoError(t, err)
	assert.True(t, a.Passed)
	assert.Equal(t, 50, a.PointsEarned)
	assert.Nil(t, a.CanRetryAt)
	assert.Equal(t, 50, f.reload(t).Points)

	for _, score := range []int{5, 0} {
		_, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, score, 5)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	}
	assert.Equal(t, 50, f.reload(t).Points)

	st, err := f.svc.QuizStatus(context.Background(), f.child.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, QuizPassed, st.Status)
	assert.Equal(t, 1, st.Attempts)

	notes, err := f.st.Notifications.ListByUser(f.parent.ID, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifQuizPassed, notes[0].Kind)
}

func TestSubmitQuizCooldown(t *testing.T) {
	f := setup(t)
	book := f.approvedBook(t, "Holes")
	failedAt := f.now

	a, err := f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 3, 5)
	require.NoError(t, err)
	assert.False(t, a.Passed)
	assert.Equal(t, 0, a.PointsEarned)
	require.NotNil(t, a.CanRetryAt)
	assert.True(t, a.CanRetryAt.Equal(failedAt.Add(12*time.Hour)))

	f.now = failedAt.Add(11*time.Hour + 59*time.Minute)
	_, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 5, 5)
	require.ErrorIs(t, err, ErrOnCooldown)
	var re *Error
	require.True(t, errors.As(err, &re))
	require.NotNil(t, re.RetryAt)
	assert.True(t, re.RetryAt.Equal(failedAt.Add(12*time.Hour)))

	st, err := f.svc.QuizStatus(context.Background(), f.child.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, QuizCooldown, st.Status)

	f.now = failedAt.Add(12*time.Hour + time.Minute)
	st, err = f.svc.QuizStatus(context.Background(), f.child.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, QuizAvailable, st.Status)

	a, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 5, 5)
	require.NoError(t, err)
	assert.True(t, a.Passed)

	notes, err := f.st.Notifications.ListByUser(f.parent.ID, false)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestSubmitQuizValidation(t *testing.T) {
	f := setup(t)
	book := f.approvedBook(t, "Holes")

	_, err := f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, 6, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, book.ID, -1, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.SubmitQuiz(context.Background(), f.child.ID, 9999, 5, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.QuizStatus(context.Background(), f.child.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizStatusAvailable(t *testing.T) {
	f := setup(t)
	book := f.approvedBook(t, "Holes")

	st, err := f.svc.QuizStatus(context.Background(), f.child.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, QuizAvailable, st.Status)
	assert.Equal(t, 0, st.Attempts)
}

func TestClassifyQuizPassWins(t *testing.T) {
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	retry := now.Add(time.Hour)
	attempts := []model.QuizAttempt{
		{Passed: true, CreatedAt: now.Add(-2 * time.Hour)},
		{Passed: false, CanRetryAt: &retry, CreatedAt: now.Add(-time.Hour)},
	}
	assert.Equal(t, QuizPassed, classifyQuiz(attempts, now).Status)
}
