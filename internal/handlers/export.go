package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"siikhub-waitlist-go/internal/models"
	"siikhub-waitlist-go/internal/waitlist"
)

var csvHeader = []string{"Email", "Source", "Created At", "Position", "Is Active"}

// Export dumps waitlist entries as json or csv
func (h *Handlers) Export(c *gin.Context) {
	format, err := waitlist.ParseExportFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		respondError(c, err, "Failed to export data")
		return
	}
	activeOnly, ok := boolQuery(c, "active_only", true)
	if !ok {
		return
	}

	entries, err := h.service.Export(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err, "Failed to export data")
		return
	}

	response := ExportResponse{
		Success:    true,
		Format:     string(format),
		Count:      len(entries),
		ExportedAt: time.Now().UTC(),
	}

	if format == waitlist.FormatCSV {
		data, err := encodeCSV(entries)
		if err != nil {
			respondError(c, err, "Failed to export data")
			return
		}
		response.Data = data
	} else {
		records := make([]ExportRecord, 0, len(entries))
		for _, e := range entries {
			records = append(records, ExportRecord{
				Email:     e.Email,
				Source:    e.Source,
				CreatedAt: e.CreatedAt,
				Position:  e.Position,
				IsActive:  e.IsActive,
			})
		}
		response.Data = records
	}

	c.JSON(http.StatusOK, response)
}

func encodeCSV(entries []models.WaitlistEntry) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, e := range entries {
		position := ""
		if e.Position != nil {
			position = strconv.Itoa(*e.Position)
		}
		record := []string{
			e.Email,
			e.Source,
			e.CreatedAt.UTC().Format(time.RFC3339),
			position,
			strconv.FormatBool(e.IsActive),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}
