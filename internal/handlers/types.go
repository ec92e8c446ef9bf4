package handlers

import "time"

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email  string `json:"email" binding:"required,max=320"`
	Source string `json:"source" binding:"max=50"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Email        string `json:"email,omitempty"`
	Position     *int   `json:"position,omitempty"`
	TotalSignups *int64 `json:"total_signups,omitempty"`
}

// SourceStat is one entry of StatsResponse.TopSources
type SourceStat struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	TotalSignups        int64        `json:"total_signups"`
	ActiveSignups       int64        `json:"active_signups"`
	InactiveSignups     int64        `json:"inactive_signups"`
	RecentSignups       int64        `json:"recent_signups"`
	TodaySignups        int64        `json:"today_signups"`
	AverageDailySignups float64      `json:"average_daily_signups"`
	TopSources          []SourceStat `json:"top_sources"`
}

// EntryResponse represents a waitlist entry in listings
type EntryResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
	Position  *int      `json:"position"`
}

// UnsubscribeResponse represents the unsubscribe response
type UnsubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// PositionResponse represents a single entry's queue position
type PositionResponse struct {
	Success      bool      `json:"success"`
	Email        string    `json:"email"`
	Position     int       `json:"position"`
	TotalSignups int64     `json:"total_signups"`
	JoinedAt     time.Time `json:"joined_at"`
	Source       string    `json:"source"`
}

// ExportRecord is one exported entry
type ExportRecord struct {
	Email     string    `json:"email"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Position  *int      `json:"position"`
	IsActive  bool      `json:"is_active"`
}

// ExportResponse wraps exported data; Data is a []ExportRecord for json and
// the CSV document for csv
type ExportResponse struct {
	Success    bool        `json:"success"`
	Format     string      `json:"format"`
	Data       interface{} `json:"data"`
	Count      int         `json:"count"`
	ExportedAt time.Time   `json:"exported_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	DatabaseStatus string    `json:"database_status"`
	TotalEntries   int64     `json:"total_entries"`
	Version        string    `json:"version"`
}

// AuditResponse reports the outcome of a position audit
type AuditResponse struct {
	Consistent    bool `json:"consistent"`
	Active        int  `json:"active"`
	Misplaced     int  `json:"misplaced"`
	StaleInactive int  `json:"stale_inactive"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
