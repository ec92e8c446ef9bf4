package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"siikhub-waitlist-go/internal/models"
	"siikhub-waitlist-go/internal/waitlist"
)

// Signup adds an email to the waitlist
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, string(waitlist.KindValidation), "Invalid request body")
		return
	}

	result, err := h.service.Signup(c.Request.Context(), waitlist.SignupRequest{
		Email:  req.Email,
		Source: req.Source,
		Provenance: waitlist.Provenance{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	})
	if err != nil {
		respondError(c, err, "Failed to process signup")
		return
	}

	position := result.Position
	total := result.TotalActive
	response := SignupResponse{
		Success:      !result.AlreadyActive(),
		Email:        result.Entry.Email,
		Position:     &position,
		TotalSignups: &total,
	}
	switch {
	case result.AlreadyActive():
		response.Message = "You're already on our waitlist! We'll notify you when SiikHub launches."
	case result.Reactivated():
		response.Message = fmt.Sprintf("Welcome back! You're #%d on the SiikHub waitlist.", position)
	default:
		response.Message = fmt.Sprintf("You're in! You're #%d on the SiikHub waitlist. We'll notify you when we launch!", position)
	}

	c.JSON(http.StatusOK, response)
}

// GetStats returns aggregate waitlist statistics
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch statistics")
		return
	}

	top := make([]SourceStat, 0, len(stats.TopSources))
	for _, s := range stats.TopSources {
		top = append(top, SourceStat{Source: s.Source, Count: s.Count})
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalSignups:        stats.Total,
		ActiveSignups:       stats.Active,
		InactiveSignups:     stats.Inactive,
		RecentSignups:       stats.Recent,
		TodaySignups:        stats.Today,
		AverageDailySignups: stats.AverageDaily,
		TopSources:          top,
	})
}

// GetEntries returns waitlist entries with pagination
func (h *Handlers) GetEntries(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		badRequest(c, "invalid_pagination", "skip must be an integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		badRequest(c, "invalid_pagination", "limit must be an integer")
		return
	}
	activeOnly, ok := boolQuery(c, "active_only", true)
	if !ok {
		return
	}

	entries, err := h.service.List(c.Request.Context(), skip, limit, activeOnly)
	if err != nil {
		respondError(c, err, "Failed to fetch entries")
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, toEntryResponse(e))
	}
	c.JSON(http.StatusOK, responses)
}

// Unsubscribe soft-deletes an email from the waitlist
func (h *Handlers) Unsubscribe(c *gin.Context) {
	entry, err := h.service.Unsubscribe(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err, "Failed to unsubscribe")
		return
	}

	c.JSON(http.StatusOK, UnsubscribeResponse{
		Success: true,
		Message: "Successfully unsubscribed from waitlist",
		Email:   entry.Email,
	})
}

// GetPosition returns a single entry's position in the waitlist
func (h *Handlers) GetPosition(c *gin.Context) {
	result, err := h.service.Position(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err, "Failed to get position")
		return
	}

	c.JSON(http.StatusOK, PositionResponse{
		Success:      true,
		Email:        result.Entry.Email,
		Position:     result.Entry.PositionValue(),
		TotalSignups: result.TotalActive,
		JoinedAt:     result.Entry.CreatedAt,
		Source:       result.Entry.Source,
	})
}

func boolQuery(c *gin.Context, key string, def bool) (bool, bool) {
	raw, present := c.GetQuery(key)
	if !present {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid_query", fmt.Sprintf("%s must be a boolean", key))
		return false, false
	}
	return v, true
}

func toEntryResponse(e models.WaitlistEntry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Email:     e.Email,
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
		IsActive:  e.IsActive,
		Position:  e.Position,
	}
}
