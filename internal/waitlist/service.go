package waitlist

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"siikhub-waitlist-go/internal/metrics"
	"siikhub-waitlist-go/internal/models"
	"siikhub-waitlist-go/internal/repository"
)

// Outcome is the branch a signup took.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyActive
	OutcomeReactivated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return metrics.OutcomeCreated
	case OutcomeAlreadyActive:
		return metrics.OutcomeAlreadyActive
	case OutcomeReactivated:
		return metrics.OutcomeReactivated
	default:
		return "unknown"
	}
}

// Provenance is optional request metadata stored on first signup.
type Provenance struct {
	IPAddress string
	UserAgent string
}

// SignupRequest is the input of Service.Signup.
type SignupRequest struct {
	Email      string
	Source     string
	Provenance Provenance
}

// SignupResult is returned by Service.Signup.
type SignupResult struct {
	Entry       models.WaitlistEntry
	Outcome     Outcome
	Position    int
	TotalActive int64
}

func (r *SignupResult) Created() bool       { return r.Outcome == OutcomeCreated }
func (r *SignupResult) AlreadyActive() bool { return r.Outcome == OutcomeAlreadyActive }
func (r *SignupResult) Reactivated() bool   { return r.Outcome == OutcomeReactivated }

// PositionResult is returned by Service.Position.
type PositionResult struct {
	Entry       models.WaitlistEntry
	TotalActive int64
}

// Options configures a Service.
type Options struct {
	DefaultSource string
	SignupRetries int
	MaxUserAgent  int
	Now           func() time.Time
}

// Service coordinates signups and unsubscribes with position re-ranking.
// Each mutation and its re-rank share one transaction, and mutations are
// serialised within the process.
type Service struct {
	repo    *repository.Repository
	ranker  *Ranker
	metrics *metrics.Metrics
	opts    Options

	mu sync.Mutex
}

// NewService creates a waitlist service.
func NewService(repo *repository.Repository, m *metrics.Metrics, opts Options) *Service {
	if opts.DefaultSource == "" {
		opts.DefaultSource = models.SourceWebsite
	}
	if opts.SignupRetries <= 0 {
		opts.SignupRetries = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:    repo,
		ranker:  NewRanker(repo, m),
		metrics: m,
		opts:    opts,
	}
}

// Ranker returns the ranker used by the service.
func (s *Service) Ranker() *Ranker {
	return s.ranker
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// Signup adds email to the waitlist, reactivates it when it was unsubscribed,
// or reports the existing position when it is already active.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	email, err := ValidateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	source, err := ValidateSource(req.Source, s.opts.DefaultSource)
	if err != nil {
		return nil, err
	}
	prov := s.trimProvenance(req.Provenance)

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		result, err := s.signupOnce(ctx, email, source, prov)
		if err == nil {
			s.metrics.Signups.WithLabelValues(result.Outcome.String()).Inc()
			s.metrics.ActiveEntries.Set(float64(result.TotalActive))
			logrus.WithFields(logrus.Fields{
				"email":    email,
				"source":   result.Entry.Source,
				"outcome":  result.Outcome.String(),
				"position": result.Position,
			}).Info("Waitlist signup processed")
			return result, nil
		}

		if repository.IsUniqueViolation(err) && attempt < s.opts.SignupRetries {
			// another writer created the same email; rerun the decision so it
			// takes the existing-record branch
			s.metrics.SignupConflicts.Inc()
			logrus.WithFields(logrus.Fields{
				"email":   email,
				"attempt": attempt,
			}).Warn("Signup conflicted on unique email, retrying")
			continue
		}

		s.metrics.Signups.WithLabelValues(metrics.OutcomeFailed).Inc()
		if repository.IsUniqueViolation(err) {
			return nil, conflictError("signup kept conflicting with concurrent writers", err)
		}
		return nil, storageError("failed to process signup", err)
	}
}

func (s *Service) signupOnce(ctx context.Context, email, source string, prov Provenance) (*SignupResult, error) {
	var result *SignupResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.LockActiveOrdered(ctx); err != nil {
			return err
		}

		existing, err := tx.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		now := s.now()
		var entry *models.WaitlistEntry
		var outcome Outcome

		switch {
		case existing == nil:
			entry = &models.WaitlistEntry{
				Email:     email,
				Source:    source,
				CreatedAt: now,
				UpdatedAt: now,
				IsActive:  true,
				IPAddress: optional(prov.IPAddress),
				UserAgent: optional(prov.UserAgent),
			}
			if err := tx.Create(ctx, entry); err != nil {
				return err
			}
			outcome = OutcomeCreated

		case existing.Status() == models.StatusActive:
			total, err := tx.CountActive(ctx)
			if err != nil {
				return err
			}
			result = &SignupResult{
				Entry:       *existing,
				Outcome:     OutcomeAlreadyActive,
				Position:    existing.PositionValue(),
				TotalActive: total,
			}
			return nil

		default:
			entry = existing
			entry.Activate(source, now)
			if err := tx.UpdateStatus(ctx, entry); err != nil {
				return err
			}
			outcome = OutcomeReactivated
		}

		active, err := s.ranker.recompute(ctx, tx)
		if err != nil {
			return err
		}

		fresh, err := tx.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		result = &SignupResult{
			Entry:       *fresh,
			Outcome:     outcome,
			Position:    fresh.PositionValue(),
			TotalActive: int64(active),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unsubscribe soft-deletes the active entry for email and re-ranks the rest.
func (s *Service) Unsubscribe(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	normalized, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var entry *models.WaitlistEntry
	var active int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.LockActiveOrdered(ctx); err != nil {
			return err
		}

		found, err := tx.FindActiveByEmail(ctx, normalized)
		if err != nil {
			return err
		}
		if found == nil {
			return notFoundError("email not found in active waitlist")
		}

		found.Deactivate(s.now())
		if err := tx.UpdateStatus(ctx, found); err != nil {
			return err
		}

		active, err = s.ranker.recompute(ctx, tx)
		if err != nil {
			return err
		}
		entry = found
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storageError("failed to unsubscribe", err)
	}

	s.metrics.Unsubscribes.Inc()
	s.metrics.ActiveEntries.Set(float64(active))
	logrus.WithField("email", normalized).Info("Waitlist entry unsubscribed")
	return entry, nil
}

// Position returns the active entry for email together with the active count.
func (s *Service) Position(ctx context.Context, email string) (*PositionResult, error) {
	normalized := NormalizeEmail(email)

	var result *PositionResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		entry, err := tx.FindActiveByEmail(ctx, normalized)
		if err != nil {
			return err
		}
		if entry == nil {
			return notFoundError("email not found in waitlist")
		}
		total, err := tx.CountActive(ctx)
		if err != nil {
			return err
		}
		result = &PositionResult{Entry: *entry, TotalActive: total}
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storageError("failed to get position", err)
	}
	return result, nil
}

// List returns a page of entries ordered by position.
func (s *Service) List(ctx context.Context, skip, limit int, activeOnly bool) ([]models.WaitlistEntry, error) {
	if err := ValidateListOptions(skip, limit); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, repository.ListOptions{Skip: skip, Limit: limit, ActiveOnly: activeOnly})
	if err != nil {
		return nil, storageError("failed to fetch entries", err)
	}
	return entries, nil
}

// Export returns every entry, or only active ones, ordered by position.
func (s *Service) Export(ctx context.Context, activeOnly bool) ([]models.WaitlistEntry, error) {
	entries, err := s.repo.List(ctx, repository.ListOptions{ActiveOnly: activeOnly})
	if err != nil {
		return nil, storageError("failed to export data", err)
	}
	return entries, nil
}

// Health reports the total entry count, failing when the store is unreachable.
func (s *Service) Health(ctx context.Context) (int64, error) {
	if err := s.repo.Ping(ctx); err != nil {
		return 0, storageError("database unreachable", err)
	}
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return 0, storageError("failed to count entries", err)
	}
	return total, nil
}

func (s *Service) trimProvenance(p Provenance) Provenance {
	if s.opts.MaxUserAgent > 0 && len(p.UserAgent) > s.opts.MaxUserAgent {
		p.UserAgent = p.UserAgent[:s.opts.MaxUserAgent]
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
