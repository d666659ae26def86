package domain

import "time"

// Event types
const (
	EventTypeRevaluationPosted   = "revaluation.posted"
	EventTypeRevaluationReversed = "revaluation.reversed"
	EventTypeRateSet             = "rate.set"
	EventTypeSettingsUpdated     = "settings.updated"
)

// Aggregate types
const (
	AggregateTypeRevaluation = "revaluation"
	AggregateTypeRate        = "rate"
	AggregateTypeCompany     = "company"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// RevaluationPostedEvent payload
type RevaluationPostedEvent struct {
	CompanyID string   `json:"company_id"`
	JournalID string   `json:"journal_id"`
	Date      string   `json:"date"`
	MoveIDs   []string `json:"move_ids"`
	Gain      string   `json:"gain"`
	Loss      string   `json:"loss"`
}

// RevaluationReversedEvent payload
type RevaluationReversedEvent struct {
	MoveID         string `json:"move_id"`
	ReversalMoveID string `json:"reversal_move_id"`
	Date           string `json:"date"`
}

// RateSetEvent payload
type RateSetEvent struct {
	CompanyID string `json:"company_id,omitempty"`
	Currency  string `json:"currency"`
	Date      string `json:"date"`
	Rate      string `json:"rate"`
}
