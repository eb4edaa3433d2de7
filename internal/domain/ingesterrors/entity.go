package ingesterrors

import "time"

// IngestError represents a persisted processing-error entry for a statement.
// Failures here never fail the owning request; they are an audit trail.
type IngestError struct {
	ID          int64     `json:"id"`
	StatementID string    `json:"statement_id"`
	Phase       string    `json:"phase,omitempty"` // store | analyze
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
