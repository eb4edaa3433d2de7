package testhelpers

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/finsight/internal/domain/ai"
	"github.com/bryanwahyu/finsight/internal/domain/analyses"
	"github.com/bryanwahyu/finsight/internal/domain/errs"
	"github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
	"github.com/bryanwahyu/finsight/internal/domain/statements"
)

// In-memory fakes implementing the domain ports, mirroring the error
// mapping of the SQL repositories.

type StatementRepo struct {
	mu    sync.Mutex
	Items map[statements.StatementID]*statements.Statement

	// cascade targets, optional
	Analyses *AnalysisRepo
	Errors   *IngestErrorRepo
}

func NewStatementRepo() *StatementRepo {
	return &StatementRepo{Items: map[statements.StatementID]*statements.Statement{}}
}

func (r *StatementRepo) Save(_ context.Context, s *statements.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.Items[s.ID] = &cp
	return nil
}

func (r *StatementRepo) Get(_ context.Context, id statements.StatementID) (*statements.Statement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Items[id]
	if !ok {
		return nil, errs.NotFound("statement not found")
	}
	cp := *s
	return &cp, nil
}

func (r *StatementRepo) Latest(_ context.Context, limit int) ([]*statements.Statement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]*statements.Statement, 0, len(r.Items))
	for _, s := range r.Items {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *StatementRepo) Delete(ctx context.Context, id statements.StatementID) error {
	r.mu.Lock()
	if _, ok := r.Items[id]; !ok {
		r.mu.Unlock()
		return errs.NotFound("statement not found")
	}
	delete(r.Items, id)
	r.mu.Unlock()

	if r.Analyses != nil {
		r.Analyses.deleteByStatement(string(id))
	}
	if r.Errors != nil {
		r.Errors.deleteByStatement(string(id))
	}
	return nil
}

type AnalysisRepo struct {
	mu    sync.Mutex
	Items []*analyses.Analysis
}

func NewAnalysisRepo() *AnalysisRepo { return &AnalysisRepo{} }

func (r *AnalysisRepo) Save(_ context.Context, a *analyses.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.Items = append(r.Items, &cp)
	return nil
}

func (r *AnalysisRepo) Get(_ context.Context, id analyses.AnalysisID) (*analyses.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Items {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errs.NotFound("analysis not found")
}

func (r *AnalysisRepo) ListByStatement(_ context.Context, statementID string) ([]*analyses.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*analyses.Analysis
	for _, a := range r.Items {
		if a.StatementID == statementID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *AnalysisRepo) Paginate(_ context.Context, page, pageSize int) ([]*analyses.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	out := make([]*analyses.Analysis, 0, len(r.Items))
	for _, a := range r.Items {
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *AnalysisRepo) deleteByStatement(statementID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Items[:0]
	for _, a := range r.Items {
		if a.StatementID != statementID {
			kept = append(kept, a)
		}
	}
	r.Items = kept
}

type IngestErrorRepo struct {
	mu     sync.Mutex
	nextID int64
	Items  []*ingesterrors.IngestError
}

func NewIngestErrorRepo() *IngestErrorRepo { return &IngestErrorRepo{} }

func (r *IngestErrorRepo) Save(_ context.Context, e *ingesterrors.IngestError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.Items = append(r.Items, &cp)
	return nil
}

func (r *IngestErrorRepo) ListByStatement(_ context.Context, statementID string, limit int) ([]*ingesterrors.IngestError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []*ingesterrors.IngestError
	for _, e := range r.Items {
		if e.StatementID == statementID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *IngestErrorRepo) deleteByStatement(statementID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Items[:0]
	for _, e := range r.Items {
		if e.StatementID != statementID {
			kept = append(kept, e)
		}
	}
	r.Items = kept
}

// FakeAI returns a canned response or error.
type FakeAI struct {
	Response string
	Err      error
	Calls    int
}

func (f *FakeAI) Analyze(_ context.Context, statementText string) (ai.Result, error) {
	f.Calls++
	if f.Err != nil {
		return ai.Result{}, f.Err
	}
	return ai.Result{Prompt: "analyze: " + statementText, Response: f.Response}, nil
}

// FakeExtractor returns a canned extraction result or error.
type FakeExtractor struct {
	Result statements.ExtractResult
	Err    error
}

func (f *FakeExtractor) Extract(_ []byte) (statements.ExtractResult, error) {
	if f.Err != nil {
		return statements.ExtractResult{}, f.Err
	}
	return f.Result, nil
}

// FakeFileStore records uploads and returns a canned URL.
type FakeFileStore struct {
	mu   sync.Mutex
	URL  string
	Err  error
	Keys []string
}

func (f *FakeFileStore) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Keys = append(f.Keys, key)
	return f.URL + "/" + key, nil
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu      sync.Mutex
	Current time.Time
}

func NewFakeClock(t time.Time) *FakeClock { return &FakeClock{Current: t} }

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Current
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Current = c.Current.Add(d)
}
