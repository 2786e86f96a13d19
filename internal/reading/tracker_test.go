package reading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/pagequest/internal/model"
)

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"The_Hobbit.epub":          "the hobbit",
		"  Charlotte's   Web.PDF ": "charlotte's web",
		"Dune.azw3":                "dune",
		"Notes.docx":               "notes.docx",
		"Matilda":                  "matilda",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTitle(in), "NormalizeTitle(%q)", in)
	}
	assert.Equal(t, "The Hobbit", CleanTitle("The_Hobbit.epub"))
}

func TestMatchBook(t *testing.T) {
	books := []model.Book{
		{ID: 1, Title: "Harry Potter and the Chamber of Secrets"},
		{ID: 2, Title: "Harry Potter"},
		{ID: 3, Title: "Holes"},
	}

	got := matchBook(books, "harry_potter.epub")
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID, "exact match wins over earlier partial")

	got = matchBook(books, "Chamber of Secrets")
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	got = matchBook(books, "Holes - Louis Sachar.mobi")
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID, "stored title contained in reported title")

	assert.Nil(t, matchBook(books, "Dune"))
	assert.Nil(t, matchBook(books, "   "))
}

func TestDeviceMinutes(t *testing.T) {
	start := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DeviceMinutes(start, start))
	assert.Equal(t, 1, DeviceMinutes(start, start.Add(20*time.Second)))
	assert.Equal(t, 2, DeviceMinutes(start, start.Add(90*time.Second)))
	assert.Equal(t, 30, DeviceMinutes(start, start.Add(30*time.Minute+29*time.Second)))
}

func TestReportOpenCreatesBookAndSession(t *testing.T) {
	f := setup(t)

	res, err := f.svc.ReportOpen(context.Background(), f.child.ID, "The_Wild_Robot.epub")
	require.NoError(t, err)
	assert.Equal(t, TrackerStarted, res.Status)
	require.NotNil(t, res.Book)
	assert.Equal(t, "The Wild Robot", res.Book.Title)
	assert.Equal(t, UnknownAuthor, res.Book.Author)
	assert.Equal(t, model.BookApproved, res.Book.Status)
	assert.Nil(t, res.Closed)

	active, err := f.svc.ActiveSession(context.Background(), f.child.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, res.Book.ID, active.BookID)
}

func TestReportOpenApprovesPendingMatch(t *testing.T) {
	f := setup(t)
	pending, err := f.st.Books.Create(f.child.ID, "Matilda", "Roald Dahl", 240, model.BookPending)
	require.NoError(t, err)

	res, err := f.svc.ReportOpen(context.Background(), f.child.ID, "matilda.pdf")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, res.Book.ID)

	got, err := f.st.Books.GetByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookApproved, got.Status)
}

func TestReportOpenRejectedBook(t *testing.T) {
	f := setup(t)
	_, err := f.st.Books.Create(f.child.ID, "Scary Stories", "", 0, model.BookRejected)
	require.NoError(t, err)

	_, err = f.svc.ReportOpen(context.Background(), f.child.ID, "Scary Stories.epub")
	assert.ErrorIs(t, err, ErrBookNotApproved)
}

func TestOpenCloseFlow(t *testing.T) {
	f := setup(t)
	book := f.approvedBook(t, "Holes")

	_, err := f.svc.ReportOpen(context.Background(), f.child.ID, "Holes.epub")
	require.NoError(t, err)

	f.advance(20*time.Minute + 40*time.Second)
	res, err := f.svc.ReportClose(context.Background(), f.child.ID, "Holes.epub")
	require.NoError(t, err)
	assert.Equal(t, TrackerStopped, res.Status)
	require.NotNil(t, res.Closed)

	sess := res.Closed.Session
	assert.Equal(t, book.ID, sess.BookID)
	assert.Equal(t, 21, sess.DurationMinutes)
	assert.Equal(t, 21, sess.PointsEarned)
	assert.True(t, sess.Verified)
	assert.Equal(t, model.SourceDevice, sess.Source)

	u := f.reload(t)
	assert.Equal(t, 21, u.Points)
	assert.Equal(t, 21, u.TotalMinutes)
	assert.Equal(t, 1, u.StreakDays)

	active, err := f.svc.ActiveSession(context.Background(), f.child.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDevicePathFlatPointsByDefault(t *testing.T) {
	f := setup(t)
	f.approvedBook(t, "Holes")
	yesterday := time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.st.Users.ApplySession(f.child.ID, 0, 0, 7, yesterday))

	_, err := f.svc.ReportOpen(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	f.advance(40 * time.Minute)
	res, err := f.svc.ReportClose(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)

	assert.Equal(t, 40, res.Closed.Session.PointsEarned)
	assert.Equal(t, 8, res.Closed.StreakDays)

	f.svc.cfg.DeviceStreakBonus = true
	_, err = f.svc.ReportOpen(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	f.advance(40 * time.Minute)
	res, err = f.svc.ReportClose(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	assert.Equal(t, 60, res.Closed.Session.PointsEarned)
}

func TestSecondOpenForceClosesFirst(t *testing.T) {
	f := setup(t)
	first := f.approvedBook(t, "Holes")
	second := f.approvedBook(t, "Matilda")

	_, err := f.svc.ReportOpen(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	f.advance(15 * time.Minute)

	res, err := f.svc.ReportOpen(context.Background(), f.child.ID, "Matilda")
	require.NoError(t, err)
	require.NotNil(t, res.Closed)
	assert.Equal(t, first.ID, res.Closed.Session.BookID)
	assert.Equal(t, 15, res.Closed.Session.DurationMinutes)

	sessions, err := f.st.Reading.ListByUser(f.child.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	active, err := f.svc.ActiveSession(context.Background(), f.child.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.BookID)
}

func TestCloseIgnoredCases(t *testing.T) {
	f := setup(t)
	f.approvedBook(t, "Holes")
	f.approvedBook(t, "Matilda")

	res, err := f.svc.ReportClose(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	assert.Equal(t, TrackerIgnored, res.Status)

	_, err = f.svc.ReportOpen(context.Background(), f.child.ID, "Holes")
	require.NoError(t, err)
	f.advance(10 * time.Minute)

	res, err = f.svc.ReportClose(context.Background(), f.child.ID, "Matilda")
	require.NoError(t, err)
	assert.Equal(t, TrackerIgnored, res.Status)

	res, err = f.svc.ReportClose(context.Background(), f.child.ID, "Unheard Of Book")
	require.NoError(t, err)
	assert.Equal(t, TrackerIgnored, res.Status)
	books, err := f.st.Books.ListByUser(f.child.ID, "")
	require.NoError(t, err)
	assert.Len(t, books, 2, "close never creates books")

	active, err := f.svc.ActiveSession(context.Background(), f.child.ID)
	require.NoError(t, err)
	assert.NotNil(t, active, "mismatched close leaves the session open")
	assert.Equal(t, 0, f.reload(t).Points)
}

func TestHandleEvent(t *testing.T) {
	f := setup(t)

	res, err := f.svc.HandleEvent(context.Background(), f.child.ID, "Holes", "open")
	require.NoError(t, err)
	assert.Equal(t, TrackerStarted, res.Status)

	_, err = f.svc.HandleEvent(context.Background(), f.child.ID, "Holes", "PAUSED")
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, title := range []string{"", "   ", ".epub", "___", "_.pdf"} {
		_, err = f.svc.HandleEvent(context.Background(), f.child.ID, title, "OPEN")
		assert.ErrorIs(t, err, ErrInvalidInput, "open %q", title)
		_, err = f.svc.HandleEvent(context.Background(), f.child.ID, title, "CLOSED")
		assert.ErrorIs(t, err, ErrInvalidInput, "close %q", title)
	}
	books, err := f.st.Books.ListByUser(f.child.ID, "")
	require.NoError(t, err)
	assert.Len(t, books, 1, "empty titles never create books")

	_, err = f.svc.HandleEvent(context.Background(), f.parent.ID, "Holes", "OPEN")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentOpensKeepOneActive(t *testing.T) {
	f := setup(t)
	f.approvedBook(t, "Holes")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ReportOpen(context.Background(), f.child.ID, "Holes")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM active_reading_sessions WHERE user_id = ?`, f.child.ID).Scan(&count))
	assert.Equal(t, 1, count)

	sessions, err := f.st.Reading.ListByUser(f.child.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, n-1)
}
