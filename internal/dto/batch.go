package dto

import "github.com/noah-isme/academy-crm-api/internal/models"

// OccurrencesResponse lists batches holding a session on a given date.
type OccurrencesResponse struct {
	Date    string         `json:"date"`
	Batches []models.Batch `json:"batches"`
}

// SessionCountResponse reports sessions within a date range for a batch.
type SessionCountResponse struct {
	BatchID  string `json:"batch_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Sessions int    `json:"sessions"`
}

// EndDateResponse projects the completion date for a session bundle.
type EndDateResponse struct {
	BatchID       string `json:"batch_id"`
	StartDate     string `json:"start_date"`
	TotalSessions int    `json:"total_sessions"`
	EndDate       string `json:"end_date"`
}
