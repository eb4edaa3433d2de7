package analyses

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/finsight/internal/application"
	domai "github.com/bryanwahyu/finsight/internal/domain/ai"
	domain "github.com/bryanwahyu/finsight/internal/domain/analyses"
	"github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
	"github.com/bryanwahyu/finsight/internal/domain/statements"
)

const defaultAITimeout = 60 * time.Second

// Service implements use-cases untuk Analysis
type Service struct {
	Statements statements.Repository
	Repo       domain.Repository
	Errors     ingesterrors.Repository
	AI         domai.Client
	Model      string
	Timeout    time.Duration
	Clock      application.Clock
}

// Analyze runs one AI analysis for a statement and persists the result.
// Single attempt under a bounded timeout; a failed call persists no
// analysis, only an audit entry.
func (s *Service) Analyze(ctx context.Context, statementID statements.StatementID) (*domain.Analysis, error) {
	st, err := s.Statements.Get(ctx, statementID)
	if err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.AI.Analyze(ctx2, st.ExtractedText)
	if err != nil {
		s.recordError(string(st.ID), "AI analysis failed", err)
		return nil, err
	}

	a := &domain.Analysis{
		ID:          domain.AnalysisID(uuid.New().String()),
		StatementID: string(st.ID),
		Prompt:      res.Prompt,
		Response:    res.Response,
		Model:       s.Model,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, id)
}

// ListByStatement urut sesuai pembuatan; statement harus ada
func (s *Service) ListByStatement(ctx context.Context, statementID statements.StatementID) ([]*domain.Analysis, error) {
	if _, err := s.Statements.Get(ctx, statementID); err != nil {
		return nil, err
	}
	return s.Repo.ListByStatement(ctx, string(statementID))
}

// Paginate listing global, terbaru dulu
func (s *Service) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	return s.Repo.Paginate(ctx, page, pageSize)
}

func (s *Service) recordError(statementID, message string, cause error) {
	if s.Errors == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	_ = s.Errors.Save(context.Background(), &ingesterrors.IngestError{
		StatementID: statementID,
		Phase:       "analyze",
		Message:     message,
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	})
}
