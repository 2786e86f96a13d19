package reading

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/pagequest/internal/database"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type fixture struct {
	db     *sql.DB
	svc    *Service
	st     *store.Stores
	parent *model.User
	child  *model.User
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:  db,
		svc: NewService(db, DefaultConfig(), nil),
		st:  store.New(db),
		now: time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC),
	}
	f.svc.Now = func() time.Time { return f.now }

	f.parent, err = f.st.Users.Create("mom", "Mom", "hash", model.RoleParent, nil, "UTC")
	require.NoError(t, err)
	f.child, err = f.st.Users.Create("ada", "Ada", "", model.RoleChild, &f.parent.ID, "")
	require.NoError(t, err)
	return f
}

func (f *fixture) approvedBook(t *testing.T, title string) *model.Book {
	t.Helper()
	b, err := f.st.Books.Create(f.child.ID, title, "Author", 100, model.BookApproved)
	require.NoError(t, err)
	return b
}

func (f *fixture) reload(t *testing.T) *model.User {
	t.Helper()
	u, err := f.st.Users.GetByID(f.child.ID)
	require.NoError(t, err)
	return u
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}
