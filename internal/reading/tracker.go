package reading

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dukerupert/pagequest/internal/metrics"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

// Device event statuses.
const (
	EventOpen   = "OPEN"
	EventClosed = "CLOSED"
)

// Tracker outcomes.
const (
	TrackerStarted = "STARTED"
	TrackerStopped = "STOPPED"
	TrackerIgnored = "IGNORED"
)

// UnknownAuthor is the placeholder for books created from a device report.
const UnknownAuthor = "Unknown"

var bookExtensions = []string{".azw3", ".epub", ".pdf", ".mobi", ".azw", ".txt", ".cbz", ".cbr", ".fb2", ".djvu"}

var spaceRun = regexp.MustCompile(`\s+`)

// CleanTitle strips a known file extension from a reported title, turns
// underscores into spaces and collapses whitespace.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	lower := strings.ToLower(t)
	for _, ext := range bookExtensions {
		if strings.HasSuffix(lower, ext) {
			t = t[:len(t)-len(ext)]
			break
		}
	}
	t = strings.ReplaceAll(t, "_", " ")
	return spaceRun.ReplaceAllString(strings.TrimSpace(t), " ")
}

// NormalizeTitle is the lowercased CleanTitle used for matching.
func NormalizeTitle(title string) string {
	return strings.ToLower(CleanTitle(title))
}

// matchBook picks the book a reported title refers to. An exact normalized
// match wins; otherwise the oldest book whose title contains, or is
// contained in, the reported one.
func matchBook(books []model.Book, title string) *model.Book {
	want := NormalizeTitle(title)
	if want == "" {
		return nil
	}
	var partial *model.Book
	for i := range books {
		have := NormalizeTitle(books[i].Title)
		if have == "" {
			continue
		}
		if have == want {
			return &books[i]
		}
		if partial == nil && (strings.Contains(have, want) || strings.Contains(want, have)) {
			partial = &books[i]
		}
	}
	return partial
}

// resolveBook finds the child's book for a reported title. A matched
// PENDING book is approved, since the device shows it is being read. With
// create set, an unmatched title becomes a new APPROVED book.
func resolveBook(st *store.Stores, childID int64, title string, create bool) (*model.Book, error) {
	books, err := st.Books.ListByUser(childID, "")
	if err != nil {
		return nil, err
	}

	if b := matchBook(books, title); b != nil {
		switch b.Status {
		case model.BookRejected:
			return nil, newError(ErrBookNotApproved, "book %q was rejected by a parent", b.Title)
		case model.BookPending:
			if err := st.Books.UpdateStatus(b.ID, model.BookApproved); err != nil {
				return nil, err
			}
			b.Status = model.BookApproved
		}
		return b, nil
	}

	if !create {
		return nil, nil
	}
	return st.Books.Create(childID, CleanTitle(title), UnknownAuthor, 0, model.BookApproved)
}

// DeviceResult is the tracker's reply to one device event.
type DeviceResult struct {
	Status    string         `json:"status"`
	Book      *model.Book    `json:"book,omitempty"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	Closed    *SessionResult `json:"closed,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// HandleEvent dispatches a device event by status.
func (s *Service) HandleEvent(ctx context.Context, childID int64, title, status string) (*DeviceResult, error) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case EventOpen:
		return s.ReportOpen(ctx, childID, title)
	case EventClosed:
		return s.ReportClose(ctx, childID, title)
	default:
		return nil, invalid("status must be %s or %s", EventOpen, EventClosed)
	}
}

// ReportOpen starts a live session for the child. An already open session
// is closed first at the current time, inside the same transaction, so at
// most one is ever open and none is lost.
func (s *Service) ReportOpen(ctx context.Context, childID int64, title string) (*DeviceResult, error) {
	if CleanTitle(title) == "" {
		return nil, invalid("title is required")
	}
	now := s.Now()

	var result *DeviceResult
	err := s.inTx(ctx, func(st *store.Stores) error {
		child, err := loadChild(st, childID)
		if err != nil {
			return err
		}
		book, err := resolveBook(st, childID, title, true)
		if err != nil {
			return err
		}

		result = &DeviceResult{Status: TrackerStarted, Book: book}

		prev, err := st.Active.GetByUser(childID)
		if err != nil {
			return err
		}
		if prev != nil {
			result.Closed, err = s.closeActive(st, child, prev, now)
			if err != nil {
				return err
			}
		}

		active, err := st.Active.Create(childID, book.ID, now)
		if err != nil {
			return err
		}
		result.StartedAt = &active.StartTime
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Closed != nil {
		s.recordDeviceClose(childID, result.Closed, true)
	}
	s.logger.Info("device session started", "user_id", childID, "book_id", result.Book.ID)
	return result, nil
}

// ReportClose ends the child's live session if it is for the reported
// book. A close with nothing open, or for another book, is ignored.
func (s *Service) ReportClose(ctx context.Context, childID int64, title string) (*DeviceResult, error) {
	if CleanTitle(title) == "" {
		return nil, invalid("title is required")
	}
	now := s.Now()

	var result *DeviceResult
	err := s.inTx(ctx, func(st *store.Stores) error {
		child, err := loadChild(st, childID)
		if err != nil {
			return err
		}

		active, err := st.Active.GetByUser(childID)
		if err != nil {
			return err
		}
		if active == nil {
			result = &DeviceResult{Status: TrackerIgnored, Reason: "no active session"}
			return nil
		}

		// An unmatched title cannot be the open book, so nothing is created.
		book, err := resolveBook(st, childID, title, false)
		if err != nil {
			return err
		}
		if book == nil || book.ID != active.BookID {
			result = &DeviceResult{Status: TrackerIgnored, Book: book, Reason: "active session is for another book"}
			return nil
		}

		closed, err := s.closeActive(st, child, active, now)
		if err != nil {
			return err
		}
		result = &DeviceResult{Status: TrackerStopped, Book: book, StartedAt: &active.StartTime, Closed: closed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Closed != nil {
		s.recordDeviceClose(childID, result.Closed, false)
	} else {
		s.logger.Debug("device close ignored", "user_id", childID, "reason", result.Reason)
	}
	return result, nil
}

// DeviceMinutes is the whole-minute length of a live session, rounded to
// nearest and never below 1.
func DeviceMinutes(start, end time.Time) int {
	m := int(math.Round(end.Sub(start).Minutes()))
	if m < 1 {
		return 1
	}
	return m
}

// closeActive consumes an open session into a verified ReadingSession. It
// goes through record like a manual session, so a device session advances
// the streak as well as points and minutes.
func (s *Service) closeActive(st *store.Stores, child *model.User, active *model.ActiveReadingSession, now time.Time) (*SessionResult, error) {
	end := now
	if end.Before(active.StartTime) {
		end = active.StartTime
	}

	result, err := s.record(st, child, sessionInput{
		bookID:   active.BookID,
		start:    active.StartTime,
		end:      end,
		minutes:  DeviceMinutes(active.StartTime, end),
		source:   model.SourceDevice,
		verified: true,
		bonus:    s.cfg.DeviceStreakBonus,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := st.Active.Delete(active.ID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) recordDeviceClose(childID int64, r *SessionResult, forced bool) {
	metrics.SessionRecorded(metrics.SourceDevice, r.Session.DurationMinutes, r.Session.PointsEarned)
	metrics.AchievementsAwarded(len(r.Achievements))
	s.logger.Info("device session closed",
		"user_id", childID,
		"session_id", r.Session.ID,
		"minutes", r.Session.DurationMinutes,
		"points", r.Session.PointsEarned,
		"forced", forced,
	)
}

// ActiveSession returns the child's open session, if any.
func (s *Service) ActiveSession(ctx context.Context, childID int64) (*model.ActiveReadingSession, error) {
	return s.store.Active.GetByUser(childID)
}

func loadChild(st *store.Stores, id int64) (*model.User, error) {
	u, err := st.Users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != model.RoleChild {
		return nil, notFound("child not found")
	}
	return u, nil
}
