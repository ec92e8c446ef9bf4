package waitlist

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"siikhub-waitlist-go/internal/metrics"
)

// failCreates makes the next n inserts fail as if another writer had already
// taken the unique email.
func failCreates(t *testing.T, conn *gorm.DB, n int32) *atomic.Int32 {
	t.Helper()
	var remaining atomic.Int32
	remaining.Store(n)
	err := conn.Callback().Create().Before("gorm:create").Register("test:duplicate_email", func(tx *gorm.DB) {
		if remaining.Add(-1) >= 0 {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	})
	require.NoError(t, err)
	return &remaining
}

func TestSignupRetriesAfterUniqueConflict(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "first@x.com", "")
	failCreates(t, env.conn, 1)

	res, err := env.svc.Signup(context.Background(), SignupRequest{Email: "racer@x.com"})
	require.NoError(t, err)
	assert.True(t, res.Created())
	assert.Equal(t, 2, res.Position)
	assert.Equal(t, int64(2), res.TotalActive)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.SignupConflicts))
	assert.Equal(t, float64(0), testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.OutcomeFailed)))
	requireInvariants(t, env.allEntries(t))
}

func TestSignupReportsConflictWhenRetriesExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "first@x.com", "")
	failCreates(t, env.conn, 10)

	_, err := env.svc.Signup(context.Background(), SignupRequest{Email: "racer@x.com"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsStorage(err))

	// the last attempt is not counted as a retried conflict
	assert.Equal(t, float64(2), testutil.ToFloat64(env.metrics.SignupConflicts))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.Signups.WithLabelValues(metrics.OutcomeFailed)))

	entries := env.allEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "first@x.com", entries[0].Email)
	requireInvariants(t, entries)
}
