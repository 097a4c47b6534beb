package sessions

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/models"
	"gymbook/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu        sync.Mutex
	reminders []string
	cancelled map[string][]string
}

func (n *recordingNotifier) ScheduleSessionReminder(_ context.Context, sess models.Session) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, sess.ID)
	return nil
}

func (n *recordingNotifier) NotifyWaitlistPromotion(context.Context, models.Session, models.Booking) error {
	return nil
}

func (n *recordingNotifier) NotifySessionCancelled(_ context.Context, sess models.Session, clientIDs []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancelled == nil {
		n.cancelled = make(map[string][]string)
	}
	n.cancelled[sess.ID] = append(n.cancelled[sess.ID], clientIDs...)
	return nil
}

type countingCache struct {
	entries     map[string][]models.Session
	generation  int64
	hits        int
	invalidated int
}

func (c *countingCache) key(gen int64, start, end time.Time) string {
	return fmt.Sprintf("%d|%s|%s", gen, start, end)
}

func (c *countingCache) GetRange(_ context.Context, start, end time.Time) (utils.CalendarLookup, error) {
	v, ok := c.entries[c.key(c.generation, start, end)]
	if ok {
		c.hits++
	}
	return utils.CalendarLookup{Sessions: v, Hit: ok, Generation: c.generation}, nil
}

func (c *countingCache) SetRange(_ context.Context, gen int64, start, end time.Time, sessions []models.Session) error {
	if c.entries == nil {
		c.entries = make(map[string][]models.Session)
	}
	c.entries[c.key(gen, start, end)] = sessions
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.generation++
	c.invalidated++
	return nil
}

type fixture struct {
	svc      *DefaultSessionService
	repo     schedulerRepo.SchedulerRepository
	notifier *recordingNotifier
	cache    *countingCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "sessions.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := schedulerRepo.NewBoltSchedulerRepo(db)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	cache := &countingCache{}
	svc, err := NewDefaultSessionService(repo, cache, notifier, zap.NewNop(), time.UTC, 104)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, notifier: notifier, cache: cache}
}

func baseSession(at time.Time) models.Session {
	return models.Session{
		Title:       "Strength Basics",
		TrainerID:   "trainer-1",
		ScheduledAt: at,
		Duration:    60,
		MaxCapacity: 12,
	}
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	at := time.Now().Add(48 * time.Hour).UTC()

	sess, err := f.svc.CreateSession(context.Background(), baseSession(at))
	require.NoError(t, err)

	_, err = uuid.Parse(sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.SessionUpcoming, sess.Status)
	assert.Equal(t, 0, sess.CurrentCapacity)
	assert.Equal(t, []string{sess.ID}, f.notifier.reminders)

	stored, err := f.svc.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Title, stored.Title)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)
	at := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(*models.Session)
	}{
		{"missing title", func(s *models.Session) { s.Title = " " }},
		{"missing time", func(s *models.Session) { s.ScheduledAt = time.Time{} }},
		{"negative capacity", func(s *models.Session) { s.MaxCapacity = -1 }},
		{"occupancy above capacity", func(s *models.Session) { s.CurrentCapacity = 13 }},
		{"negative occupancy", func(s *models.Session) { s.CurrentCapacity = -1 }},
		{"unknown status", func(s *models.Session) { s.Status = "paused" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseSession(at)
			tt.mutate(&in)
			_, err := f.svc.CreateSession(context.Background(), in)
			assert.Equal(t, CodeInvalidInput, ErrorCode(err))
		})
	}
}

func TestGetSessionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetSession(context.Background(), "nope")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
	assert.ErrorIs(t, err, schedulerRepo.ErrSessionNotFound)
}

func TestGetSessionsByDateRangeUsesCache(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	_, err := f.svc.CreateSession(context.Background(), baseSession(start.Add(10*time.Hour)))
	require.NoError(t, err)

	first, err := f.svc.GetSessionsByDateRange(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.svc.GetSessionsByDateRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.svc.CreateSession(context.Background(), baseSession(start.Add(30*time.Hour)))
	require.NoError(t, err)
	third, err := f.svc.GetSessionsByDateRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Len(t, third, 2, "writes must invalidate cached ranges")

	_, err = f.svc.GetSessionsByDateRange(context.Background(), end, start)
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))
}

// writeDuringRead books a spot and invalidates the cache while a date-range
// read is in flight, after the store has produced its result.
type writeDuringRead struct {
	schedulerRepo.SchedulerRepository
	cache utils.CalendarCache
	once  sync.Once
	write func()
}

func (r *writeDuringRead) GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	found, err := r.SchedulerRepository.GetSessionsByDateRange(ctx, start, end)
	r.once.Do(r.write)
	return found, err
}

func TestGetSessionsByDateRangeIgnoresResultOutdatedByConcurrentWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	sess, err := f.svc.CreateSession(ctx, baseSession(start.Add(10*time.Hour)))
	require.NoError(t, err)

	racing := &writeDuringRead{SchedulerRepository: f.repo, cache: f.cache}
	racing.write = func() {
		require.NoError(t, f.repo.BookSessionSpot(ctx, &models.Booking{
			ID:        uuid.New().String(),
			SessionID: sess.ID,
			ClientID:  "c1",
			CreatedAt: time.Now().UTC(),
		}))
		require.NoError(t, racing.cache.Invalidate(ctx))
	}
	f.svc.Repo = racing

	stale, err := f.svc.GetSessionsByDateRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 0, stale[0].CurrentCapacity)

	fresh, err := f.svc.GetSessionsByDateRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, 1, fresh[0].CurrentCapacity)
	assert.Equal(t, 0, f.cache.hits)
}

func TestCancelSessionTwiceIsSafe(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.CreateSession(context.Background(), baseSession(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	first, err := f.svc.CancelSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, first.Status)

	second, err := f.svc.CancelSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, second.Status)

	_, err = f.svc.CancelSession(context.Background(), "missing")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestCancelSessionKeepsBookingsAndNotifies(t *testing.T) {
	f := newFixture(t)
	in := baseSession(time.Now().Add(time.Hour))
	in.MaxCapacity = 1
	sess, err := f.svc.CreateSession(context.Background(), in)
	require.NoError(t, err)

	require.NoError(t, f.repo.BookSessionSpot(context.Background(), &models.Booking{
		ID: uuid.New().String(), SessionID: sess.ID, ClientID: "alice", CreatedAt: time.Now(),
	}))
	require.NoError(t, f.repo.AddToWaitlist(context.Background(), &models.WaitlistEntry{
		ID: uuid.New().String(), SessionID: sess.ID, ClientID: "bob", AddedAt: time.Now(),
	}))

	_, err = f.svc.CancelSession(context.Background(), sess.ID)
	require.NoError(t, err)

	bookings, err := f.repo.GetSessionBookings(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, f.notifier.cancelled[sess.ID])
}

func TestUpdateSessionStatus(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.CreateSession(context.Background(), baseSession(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.svc.UpdateSessionStatus(ctx, sess.ID, models.SessionCompleted)
	assert.Equal(t, CodeInvalidTransition, ErrorCode(err), "upcoming cannot complete directly")

	live, err := f.svc.UpdateSessionStatus(ctx, sess.ID, models.SessionLive)
	require.NoError(t, err)
	assert.Equal(t, models.SessionLive, live.Status)

	done, err := f.svc.UpdateSessionStatus(ctx, sess.ID, models.SessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, done.Status)

	_, err = f.svc.UpdateSessionStatus(ctx, sess.ID, models.SessionUpcoming)
	assert.Equal(t, CodeInvalidTransition, ErrorCode(err))

	_, err = f.svc.CancelSession(ctx, sess.ID)
	assert.Equal(t, CodeInvalidTransition, ErrorCode(err), "completed sessions cannot be cancelled")

	_, err = f.svc.UpdateSessionStatus(ctx, sess.ID, "paused")
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.CreateSession(context.Background(), baseSession(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(context.Background(), sess.ID))
	assert.Equal(t, CodeNotFound, ErrorCode(f.svc.DeleteSession(context.Background(), sess.ID)))
}

func TestCreateRecurringSessionsWeekly(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 22, 9, 0, 0, 0, time.UTC)

	series, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "weekly", nil, end)
	require.NoError(t, err)
	require.Len(t, series, 4)

	parent := series[0]
	assert.True(t, parent.IsRecurring)
	assert.Equal(t, "weekly", parent.RecurringPattern)
	require.NotNil(t, parent.RecurringEndDate)
	assert.True(t, parent.ScheduledAt.Equal(start))

	wantDays := []int{8, 15, 22}
	for i, child := range series[1:] {
		assert.False(t, child.IsRecurring)
		assert.Equal(t, parent.ID, child.ParentSessionID)
		assert.Equal(t, wantDays[i], child.ScheduledAt.Day())
		assert.Equal(t, parent.Title, child.Title)
		assert.Equal(t, parent.MaxCapacity, child.MaxCapacity)
	}

	stored, err := f.repo.GetSessionsByDateRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
	assert.Len(t, f.notifier.reminders, 4)
}

func TestCreateRecurringSessionsEdgeCases(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)

	t.Run("base past end date yields parent only", func(t *testing.T) {
		series, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "weekly", nil, start.AddDate(0, 0, -1))
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.True(t, series[0].IsRecurring)
	})

	t.Run("weekdays are honoured", func(t *testing.T) {
		series, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "weekly", []string{"Monday", "Wednesday"}, start.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, series, 3)
		assert.Equal(t, time.Wednesday, series[1].ScheduledAt.Weekday())
		assert.Equal(t, time.Monday, series[2].ScheduledAt.Weekday())
		assert.Equal(t, []string{"Monday", "Wednesday"}, series[0].RecurringDays)
	})

	t.Run("unknown pattern is rejected", func(t *testing.T) {
		_, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "yearly", nil, start.AddDate(1, 0, 0))
		assert.Equal(t, CodeUnsupportedPattern, ErrorCode(err))
	})

	t.Run("bad weekday is invalid input", func(t *testing.T) {
		_, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "weekly", []string{"someday"}, start.AddDate(0, 1, 0))
		assert.Equal(t, CodeInvalidInput, ErrorCode(err))
	})

	t.Run("series is bounded", func(t *testing.T) {
		f.svc.MaxRecurringInstances = 5
		defer func() { f.svc.MaxRecurringInstances = 104 }()
		_, err := f.svc.CreateRecurringSessions(context.Background(), baseSession(start), "daily", nil, start.AddDate(0, 0, 30))
		assert.Equal(t, CodeTooManyOccurrences, ErrorCode(err))
	})
}
