package waitlist

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/metrics"
	"siikhub-waitlist-go/internal/models"
	"siikhub-waitlist-go/internal/repository"
)

// Ranker assigns dense queue positions 1..N to the active entries, ordered by
// created_at and then id. Inactive entries always have a NULL position.
type Ranker struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
}

// NewRanker creates a ranker over repo.
func NewRanker(repo *repository.Repository, m *metrics.Metrics) *Ranker {
	return &Ranker{repo: repo, metrics: m}
}

// Recompute re-ranks every active entry in a single transaction and returns
// the active count.
func (r *Ranker) Recompute(ctx context.Context) (int, error) {
	var active int
	err := r.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		active, err = r.recompute(ctx, tx)
		return err
	})
	if err != nil {
		return 0, storageError("failed to recompute positions", err)
	}
	return active, nil
}

// recompute must run inside the caller's transaction. Rows whose position is
// already correct are not rewritten.
func (r *Ranker) recompute(ctx context.Context, tx *repository.Repository) (int, error) {
	start := time.Now()
	defer func() {
		r.metrics.RerankDuration.Observe(time.Since(start).Seconds())
	}()

	active, err := tx.LockActiveOrdered(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, entry := range active {
		want := i + 1
		if entry.Position != nil && *entry.Position == want {
			continue
		}
		if err := tx.SetPosition(ctx, entry.ID, want); err != nil {
			return 0, err
		}
		changed++
	}

	cleared, err := tx.ClearInactivePositions(ctx)
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"active":  len(active),
		"changed": changed,
		"cleared": cleared,
	}).Debug("Recomputed waitlist positions")

	return len(active), nil
}

// Report describes how far stored positions are from the expected ranking.
type Report struct {
	Active        int
	Misplaced     int
	StaleInactive int
}

// Consistent reports whether the positions are dense and inactive rows carry
// no position.
func (r Report) Consistent() bool {
	return r.Misplaced == 0 && r.StaleInactive == 0
}

// Verify compares stored positions with the ranking a recompute would write.
func (r *Ranker) Verify(ctx context.Context) (Report, error) {
	entries, err := r.repo.List(ctx, repository.ListOptions{})
	if err != nil {
		return Report{}, storageError("failed to load entries", err)
	}
	return verifyEntries(entries), nil
}

func verifyEntries(entries []models.WaitlistEntry) Report {
	var report Report
	active := make([]models.WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsActive {
			active = append(active, e)
		} else if e.Position != nil {
			report.StaleInactive++
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})

	report.Active = len(active)
	for i, e := range active {
		if e.Position == nil || *e.Position != i+1 {
			report.Misplaced++
		}
	}
	return report
}

// Audit verifies positions, repairs them with a recompute when they drifted
// and refreshes the entry gauges.
func (r *Ranker) Audit(ctx context.Context) (Report, error) {
	r.metrics.AuditRuns.Inc()

	report, err := r.Verify(ctx)
	if err != nil {
		return report, err
	}

	if !report.Consistent() {
		logrus.WithFields(logrus.Fields{
			"misplaced":      report.Misplaced,
			"stale_inactive": report.StaleInactive,
		}).Warn("Waitlist positions inconsistent, recomputing")
		if _, err := r.Recompute(ctx); err != nil {
			return report, err
		}
		r.metrics.AuditRepairs.Inc()
	}

	total, err := r.repo.CountAll(ctx)
	if err != nil {
		return report, storageError("failed to count entries", err)
	}
	r.metrics.ActiveEntries.Set(float64(report.Active))
	r.metrics.TotalEntries.Set(float64(total))
	return report, nil
}
