package waitlist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"siikhub-waitlist-go/internal/db"
	"siikhub-waitlist-go/internal/metrics"
	"siikhub-waitlist-go/internal/models"
	"siikhub-waitlist-go/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	conn    *gorm.DB
	repo    *repository.Repository
	metrics *metrics.Metrics
	clock   *fakeClock
	svc     *Service
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := newTestDB(t)
	repo := repository.New(conn)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	clock := newFakeClock()
	svc := NewService(repo, m, Options{
		DefaultSource: models.SourceWebsite,
		SignupRetries: 3,
		MaxUserAgent:  500,
		Now:           clock.Now,
	})
	return &testEnv{conn: conn, repo: repo, metrics: m, clock: clock, svc: svc}
}

func (e *testEnv) signup(t *testing.T, email, source string) *SignupResult {
	t.Helper()
	res, err := e.svc.Signup(context.Background(), SignupRequest{Email: email, Source: source})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return res
}

func (e *testEnv) unsubscribe(t *testing.T, email string) {
	t.Helper()
	_, err := e.svc.Unsubscribe(context.Background(), email)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
}

func (e *testEnv) entry(t *testing.T, email string) models.WaitlistEntry {
	t.Helper()
	found, err := e.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, found, "entry %s not found", email)
	return *found
}

func (e *testEnv) allEntries(t *testing.T) []models.WaitlistEntry {
	t.Helper()
	entries, err := e.repo.List(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	return entries
}

// requireInvariants checks density over the active set and that only
// inactive entries have a NULL position.
func requireInvariants(t *testing.T, entries []models.WaitlistEntry) {
	t.Helper()
	seen := map[int]bool{}
	active := 0
	for _, e := range entries {
		if !e.IsActive {
			require.Nil(t, e.Position, "inactive entry %s has a position", e.Email)
			continue
		}
		active++
		require.NotNil(t, e.Position, "active entry %s has no position", e.Email)
		require.False(t, seen[*e.Position], "duplicate position %d", *e.Position)
		seen[*e.Position] = true
	}
	for p := 1; p <= active; p++ {
		require.True(t, seen[p], "missing position %d", p)
	}
	require.Len(t, seen, active)
}
