package waitlist

import (
	"context"
	"math"
	"time"

	"siikhub-waitlist-go/internal/models"
)

const (
	recentWindow   = 7 * 24 * time.Hour
	averageDays    = 30
	topSourceLimit = 5
)

// Stats is a point-in-time snapshot of the waitlist.
type Stats struct {
	Total        int64
	Active       int64
	Inactive     int64
	Recent       int64
	Today        int64
	AverageDaily float64
	TopSources   []models.SourceCount
}

// Stats computes the aggregate statistics at call time.
//
// Today counts entries created since UTC midnight whatever their status; the
// other windowed counts only include active entries, except AverageDaily which
// covers every entry created in the last 30 days.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	recent, err := s.repo.CountCreatedSince(ctx, now.Add(-recentWindow), true)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	today, err := s.repo.CountCreatedSince(ctx, todayStart, false)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	lastMonth, err := s.repo.CountCreatedSince(ctx, now.AddDate(0, 0, -averageDays), false)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	top, err := s.repo.TopSources(ctx, topSourceLimit)
	if err != nil {
		return nil, storageError("failed to fetch statistics", err)
	}
	if top == nil {
		top = []models.SourceCount{}
	}

	return &Stats{
		Total:        total,
		Active:       active,
		Inactive:     total - active,
		Recent:       recent,
		Today:        today,
		AverageDaily: round2(float64(lastMonth) / averageDays),
		TopSources:   top,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
