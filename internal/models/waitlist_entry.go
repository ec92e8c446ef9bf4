package models

import (
	"time"
)

// Status is the lifecycle state of a waitlist entry.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "active"
	}
	return "inactive"
}

// WaitlistEntry represents a single signup in the waitlist.
//
// Position is only meaningful while the entry is active; it is kept NULL for
// inactive rows so that positions over the active set stay dense.
type WaitlistEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Source    string    `json:"source" gorm:"type:varchar(50);not null;default:website;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	Position  *int      `json:"position" gorm:"index"`
	IPAddress *string   `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	UserAgent *string   `json:"user_agent,omitempty" gorm:"type:varchar(512)"`
}

// TableName specifies the table name for WaitlistEntry
func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// Status reports the entry's lifecycle state.
func (e *WaitlistEntry) Status() Status {
	if e.IsActive {
		return StatusActive
	}
	return StatusInactive
}

// Activate moves the entry into the active set. The position is assigned by
// the next re-rank.
func (e *WaitlistEntry) Activate(source string, now time.Time) {
	e.IsActive = true
	e.Source = source
	e.UpdatedAt = now
}

// Deactivate soft-deletes the entry and clears its position.
func (e *WaitlistEntry) Deactivate(now time.Time) {
	e.IsActive = false
	e.Position = nil
	e.UpdatedAt = now
}

// PositionValue returns the position or 0 when it is unset.
func (e WaitlistEntry) PositionValue() int {
	if e.Position == nil {
		return 0
	}
	return *e.Position
}
