package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siikhub-waitlist-go/internal/models"
)

// Repository is the gorm-backed record store for waitlist entries.
type Repository struct {
	db *gorm.DB
}

// ListOptions controls entry listing.
type ListOptions struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a single database transaction. The repository
// passed to fn is bound to that transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Ping checks that the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// FindByEmail returns the entry for email regardless of status, or nil when
// there is none.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	result := r.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

// FindActiveByEmail returns the active entry for email, or nil.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	result := r.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *Repository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// UpdateStatus persists the lifecycle fields of entry. created_at and the
// provenance columns are never written here.
func (r *Repository) UpdateStatus(ctx context.Context, entry *models.WaitlistEntry) error {
	result := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("id = ?", entry.ID).
		UpdateColumns(map[string]interface{}{
			"is_active":  entry.IsActive,
			"source":     entry.Source,
			"updated_at": entry.UpdatedAt,
			"position":   entry.Position,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update entry %d: %w", entry.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update entry %d: %w", entry.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// LockActiveOrdered loads every active entry in ranking order, created_at then
// id, taking row locks where the dialect supports them.
func (r *Repository) LockActiveOrdered(ctx context.Context) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "position", "created_at").
		Where("is_active = ?", true).
		Order("created_at ASC").Order("id ASC").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load active entries: %w", result.Error)
	}
	return entries, nil
}

// SetPosition writes position without touching updated_at.
func (r *Repository) SetPosition(ctx context.Context, id uint, position int) error {
	result := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("id = ?", id).
		UpdateColumn("position", position)
	if result.Error != nil {
		return fmt.Errorf("failed to set position for entry %d: %w", id, result.Error)
	}
	return nil
}

// ClearInactivePositions nulls stale positions on inactive rows.
func (r *Repository) ClearInactivePositions(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("is_active = ? AND position IS NOT NULL", false).
		UpdateColumn("position", gorm.Expr("NULL"))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear inactive positions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return total, nil
}

func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("is_active = ?", true).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count active entries: %w", err)
	}
	return total, nil
}

// CountCreatedSince counts entries created at or after since. When activeOnly
// is set only active entries are counted.
func (r *Repository) CountCreatedSince(ctx context.Context, since time.Time, activeOnly bool) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Where("created_at >= ?", since)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries since %s: %w", since.Format(time.RFC3339), err)
	}
	return total, nil
}

// TopSources groups active entries by source, largest first, ties broken by
// source name.
func (r *Repository) TopSources(ctx context.Context, limit int) ([]models.SourceCount, error) {
	var rows []models.SourceCount
	result := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("source, COUNT(id) AS count").
		Where("is_active = ?", true).
		Group("source").
		Order("count DESC").Order("source ASC").
		Limit(limit).
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to aggregate sources: %w", result.Error)
	}
	return rows, nil
}

// List returns entries ordered by position. Inactive entries have no position
// and sort after every active entry.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	q := r.db.WithContext(ctx).Model(&models.WaitlistEntry{})
	if opts.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	q = q.Order("is_active DESC").Order("position ASC").Order("created_at ASC").Order("id ASC")
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// IsUniqueViolation reports whether err comes from the unique email index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
