package testhelpers

import (
	"time"

	"github.com/bryanwahyu/finsight/internal/domain/analyses"
	"github.com/bryanwahyu/finsight/internal/domain/statements"
)

func SampleStatement(id string, at time.Time) *statements.Statement {
	return &statements.Statement{
		ID:            statements.StatementID(id),
		Filename:      id + ".pdf",
		Format:        statements.FormatPDF,
		ExtractedText: "RELEVE DE COMPTE\nPAIEMENT CB SUPERMARCHE 45,90",
		PageCount:     1,
		CharCount:     44,
		UploadedAt:    at,
	}
}

func SampleAnalysis(id, statementID string, at time.Time) *analyses.Analysis {
	return &analyses.Analysis{
		ID:          analyses.AnalysisID(id),
		StatementID: statementID,
		Prompt:      "analyze: sample",
		Response:    "spending looks stable this month",
		Model:       "gpt-4o-mini",
		CreatedAt:   at,
	}
}
