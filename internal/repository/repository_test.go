package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"siikhub-waitlist-go/internal/db"
	"siikhub-waitlist-go/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := db.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	return New(conn)
}

func newEntry(email string, created time.Time, active bool) *models.WaitlistEntry {
	return &models.WaitlistEntry{
		Email:     email,
		Source:    models.SourceWebsite,
		CreatedAt: created,
		UpdatedAt: created,
		IsActive:  active,
	}
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newEntry("a@x.com", created, true)))

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NotZero(t, found.ID)
	assert.True(t, found.CreatedAt.Equal(created))

	missing, err := repo.FindByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateDuplicateIsUniqueViolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newEntry("dup@x.com", now, true)))
	err := repo.Create(ctx, newEntry("dup@x.com", now, false))
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(errors.New("Error 1062: Duplicate entry 'a@x.com' for key 'idx_email'")))
}

func TestFindActiveByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newEntry("off@x.com", now, false)))
	found, err := repo.FindActiveByEmail(ctx, "off@x.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUpdateStatusLeavesCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	entry := newEntry("s@x.com", created, true)
	require.NoError(t, repo.Create(ctx, entry))

	later := created.Add(48 * time.Hour)
	entry.Deactivate(later)
	require.NoError(t, repo.UpdateStatus(ctx, entry))

	found, err := repo.FindByEmail(ctx, "s@x.com")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Nil(t, found.Position)
	assert.True(t, found.CreatedAt.Equal(created))
	assert.True(t, found.UpdatedAt.Equal(later))

	ghost := newEntry("ghost@x.com", created, true)
	ghost.ID = 999
	assert.Error(t, repo.UpdateStatus(ctx, ghost))
}

func TestLockActiveOrderedAndPositions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newEntry("late@x.com", base.Add(time.Hour), true)))
	require.NoError(t, repo.Create(ctx, newEntry("early@x.com", base, true)))
	require.NoError(t, repo.Create(ctx, newEntry("off@x.com", base.Add(-time.Hour), false)))

	err := repo.Transaction(ctx, func(tx *Repository) error {
		active, err := tx.LockActiveOrdered(ctx)
		if err != nil {
			return err
		}
		require.Len(t, active, 2)
		for i, e := range active {
			if err := tx.SetPosition(ctx, e.ID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	early, _ := repo.FindByEmail(ctx, "early@x.com")
	late, _ := repo.FindByEmail(ctx, "late@x.com")
	assert.Equal(t, 1, early.PositionValue())
	assert.Equal(t, 2, late.PositionValue())

	require.NoError(t, repo.SetPosition(ctx, mustFind(t, repo, "off@x.com").ID, 3))
	cleared, err := repo.ClearInactivePositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.Nil(t, mustFind(t, repo, "off@x.com").Position)
}

func TestTransactionRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *Repository) error {
		if err := tx.Create(ctx, newEntry("rollback@x.com", time.Now().UTC(), true)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCountsAndTopSources(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	mk := func(email, source string, created time.Time, active bool) {
		e := newEntry(email, created, active)
		e.Source = source
		require.NoError(t, repo.Create(ctx, e))
	}
	mk("1@x.com", "website", base.AddDate(0, 0, -9), true)
	mk("2@x.com", "social", base.AddDate(0, 0, -2), true)
	mk("3@x.com", "social", base.AddDate(0, 0, -1), false)
	mk("4@x.com", "mobile", base, true)

	all, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all)

	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), active)

	since := base.AddDate(0, 0, -7)
	recentActive, err := repo.CountCreatedSince(ctx, since, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), recentActive)

	recentAll, err := repo.CountCreatedSince(ctx, since, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), recentAll)

	top, err := repo.TopSources(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []models.SourceCount{
		{Source: "mobile", Count: 1},
		{Source: "social", Count: 1},
		{Source: "website", Count: 1},
	}, top)

	top, err = repo.TopSources(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func mustFind(t *testing.T, repo *Repository, email string) *models.WaitlistEntry {
	t.Helper()
	e, err := repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}
