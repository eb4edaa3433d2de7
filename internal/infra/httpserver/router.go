package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalyses "github.com/bryanwahyu/finsight/internal/application/analyses"
	appstatements "github.com/bryanwahyu/finsight/internal/application/statements"
	domai "github.com/bryanwahyu/finsight/internal/domain/ai"
	dmanalyses "github.com/bryanwahyu/finsight/internal/domain/analyses"
	"github.com/bryanwahyu/finsight/internal/domain/errs"
	"github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
	dmstatements "github.com/bryanwahyu/finsight/internal/domain/statements"
	"github.com/bryanwahyu/finsight/internal/middleware"
)

const defaultMaxUploadMB = 10

// Options configures the HTTP surface around the services.
type Options struct {
	MaxUploadMB    int
	CORSOrigins    []string
	AnalyzeLimiter *middleware.RateLimiter
	Health         map[string]middleware.HealthChecker
}

type Router struct {
	statementsSvc  *appstatements.Service
	analysesSvc    *appanalyses.Service
	maxUploadBytes int64
}

func NewRouter(statementsSvc *appstatements.Service, analysesSvc *appanalyses.Service, opts Options) http.Handler {
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	rt := &Router{
		statementsSvc:  statementsSvc,
		analysesSvc:    analysesSvc,
		maxUploadBytes: int64(maxMB) * 1024 * 1024,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(v1 chi.Router) {
		v1.Post("/statements", rt.wrap(rt.handleUpload))
		v1.Get("/statements", rt.wrap(rt.handleListStatements))
		v1.Get("/statements/{id}", rt.wrap(rt.handleGetStatement))
		v1.Delete("/statements/{id}", rt.wrap(rt.handleDeleteStatement))
		v1.Get("/statements/{id}/analyses", rt.wrap(rt.handleListStatementAnalyses))
		v1.Get("/statements/{id}/errors", rt.wrap(rt.handleListIngestErrors))

		if opts.AnalyzeLimiter != nil {
			v1.With(opts.AnalyzeLimiter.Middleware).
				Post("/statements/{id}/analyses", rt.wrap(rt.handleCreateAnalysis))
		} else {
			v1.Post("/statements/{id}/analyses", rt.wrap(rt.handleCreateAnalysis))
		}

		v1.Get("/analyses", rt.wrap(rt.handleListAnalyses))
		v1.Get("/analyses/{id}", rt.wrap(rt.handleGetAnalysis))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeError(w, req, err)
		}
	}
}

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// writeError translates domain errors into the response taxonomy.
// Satu-satunya tempat error dipetakan ke HTTP status.
func writeError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, domai.ErrQuotaExceeded) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:   "QuotaExceeded",
			Message: "ai quota exceeded",
			Details: map[string]any{},
		})
		return
	}

	var e *errs.Error
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		message := e.Message
		details := e.Details
		if details == nil {
			details = map[string]any{}
		}

		switch e.Kind {
		case errs.KindNotFound:
			status = http.StatusNotFound
		case errs.KindValidation:
			status = http.StatusBadRequest
		case errs.KindExtraction:
			status = http.StatusUnprocessableEntity
		case errs.KindAIService:
			status = http.StatusServiceUnavailable
		case errs.KindDatabase:
			// opaque ke caller, detail cuma masuk log
			log.Printf("database error: path=%s err=%v", req.URL.Path, err)
			message = "internal storage error"
			details = map[string]any{}
		}

		writeJSON(w, status, errorBody{Error: string(e.Kind), Message: message, Details: details})
		return
	}

	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   string(errs.KindNotFound),
			Message: "not found",
			Details: map[string]any{},
		})
		return
	}

	log.Printf("unhandled error: path=%s err=%v", req.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:   "InternalServerError",
		Message: "an unexpected error occurred",
		Details: map[string]any{},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /v1/statements
// multipart form, field "file"
func (rt *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, rt.maxUploadBytes)

	if err := req.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error:   string(errs.KindValidation),
				Message: "file too large",
				Details: map[string]any{"max_bytes": rt.maxUploadBytes},
			})
			return nil
		}
		return errs.Validation("invalid multipart form")
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		return errs.Validation("file is required")
	}
	defer file.Close()

	if err := middleware.ValidateUploadFilename(header.Filename); err != nil {
		return errs.Validation(err.Error()).With("filename", header.Filename)
	}
	if err := middleware.ValidateContentType(header.Filename, header.Header.Get("Content-Type")); err != nil {
		return errs.Validation(err.Error()).With("filename", header.Filename)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return errs.Validation("could not read uploaded file")
	}

	result, err := rt.statementsSvc.Upload(req.Context(), appstatements.UploadCommand{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		if errs.IsKind(err, errs.KindExtraction) {
			middleware.IncrementExtractionsFailed()
		}
		return err
	}

	middleware.IncrementUploads()
	writeJSON(w, http.StatusCreated, result)
	return nil
}

// GET /v1/statements?limit=20
func (rt *Router) handleListStatements(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := rt.statementsSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*dmstatements.Statement{}
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/statements/{id}
func (rt *Router) handleGetStatement(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	stmt, err := rt.statementsSvc.Get(req.Context(), dmstatements.StatementID(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stmt)
	return nil
}

// DELETE /v1/statements/{id}
func (rt *Router) handleDeleteStatement(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	if err := rt.statementsSvc.Delete(req.Context(), dmstatements.StatementID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/statements/{id}/analyses
func (rt *Router) handleCreateAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	a, err := rt.analysesSvc.Analyze(req.Context(), dmstatements.StatementID(id))
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	middleware.IncrementAnalyses()
	writeJSON(w, http.StatusCreated, a)
	return nil
}

// GET /v1/statements/{id}/analyses
func (rt *Router) handleListStatementAnalyses(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	list, err := rt.analysesSvc.ListByStatement(req.Context(), dmstatements.StatementID(id))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*dmanalyses.Analysis{}
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/statements/{id}/errors?limit=50
func (rt *Router) handleListIngestErrors(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := rt.statementsSvc.ListErrors(req.Context(), dmstatements.StatementID(id), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*ingesterrors.IngestError{}
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/analyses?page=&page_size=
func (rt *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := rt.analysesSvc.Paginate(req.Context(), page, size)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*dmanalyses.Analysis{}
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/analyses/{id}
func (rt *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	a, err := rt.analysesSvc.Get(req.Context(), dmanalyses.AnalysisID(id))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}
