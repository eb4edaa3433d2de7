package ai

import "context"

// Result hasil satu panggilan analisis
type Result struct {
	Prompt   string // the user prompt actually sent, persisted for audit
	Response string
}

// Client port untuk layanan analisis AI eksternal
type Client interface {
	Analyze(ctx context.Context, statementText string) (Result, error)
}
