package analyses

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis represents one AI commentary generated for a statement.
// Immutable after creation; removed when its statement is deleted.
type Analysis struct {
	ID          AnalysisID `json:"id"`
	StatementID string     `json:"statement_id"`
	Prompt      string     `json:"prompt"`
	Response    string     `json:"response"`
	Model       string     `json:"model,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
