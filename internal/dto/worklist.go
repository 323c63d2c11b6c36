package dto

import "github.com/noah-isme/academy-crm-api/internal/models"

// TripleStackResponse is the categorised worklist payload for a selected date.
type TripleStackResponse struct {
	SelectedDate string            `json:"selected_date"`
	Overdue      []models.Lead     `json:"overdue"`
	Today        []models.Lead     `json:"today"`
	Upcoming     []models.Lead     `json:"upcoming"`
	Counts       TripleStackCounts `json:"counts"`
}

// TripleStackCounts summarises bucket sizes for badge rendering.
type TripleStackCounts struct {
	Overdue  int `json:"overdue"`
	Today    int `json:"today"`
	Upcoming int `json:"upcoming"`
}

// SmartFilterResponse is a single named-filter view over the lead collection.
type SmartFilterResponse struct {
	Filter   models.SmartFilter `json:"filter"`
	Leads    []models.Lead      `json:"leads,omitempty"`
	Students []models.Student   `json:"students,omitempty"`
	Count    int                `json:"count"`
}
