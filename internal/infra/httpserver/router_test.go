package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appanalyses "github.com/bryanwahyu/finsight/internal/application/analyses"
	appstatements "github.com/bryanwahyu/finsight/internal/application/statements"
	domai "github.com/bryanwahyu/finsight/internal/domain/ai"
	"github.com/bryanwahyu/finsight/internal/domain/errs"
	domain "github.com/bryanwahyu/finsight/internal/domain/statements"
	"github.com/bryanwahyu/finsight/internal/infra/httpserver"
	"github.com/bryanwahyu/finsight/internal/middleware"
	"github.com/bryanwahyu/finsight/internal/testhelpers"
)

func multipartUpload(filename string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(content)
	Expect(err).NotTo(HaveOccurred())
	Expect(mw.Close()).To(Succeed())
	return body, mw.FormDataContentType()
}

var _ = Describe("Router", func() {
	var (
		repo      *testhelpers.StatementRepo
		analyses  *testhelpers.AnalysisRepo
		errorRepo *testhelpers.IngestErrorRepo
		pdf       *testhelpers.FakeExtractor
		csv       *testhelpers.FakeExtractor
		aiClient  *testhelpers.FakeAI
		clock     *testhelpers.FakeClock
		handler   http.Handler
	)

	newHandler := func(opts httpserver.Options) http.Handler {
		stmtSvc := &appstatements.Service{
			Repo:   repo,
			Errors: errorRepo,
			PDF:    pdf,
			CSV:    csv,
			Clock:  clock,
		}
		anSvc := &appanalyses.Service{
			Statements: repo,
			Repo:       analyses,
			Errors:     errorRepo,
			AI:         aiClient,
			Model:      "gpt-4o-mini",
			Clock:      clock,
		}
		return httpserver.NewRouter(stmtSvc, anSvc, opts)
	}

	BeforeEach(func() {
		analyses = testhelpers.NewAnalysisRepo()
		errorRepo = testhelpers.NewIngestErrorRepo()
		repo = testhelpers.NewStatementRepo()
		repo.Analyses = analyses
		repo.Errors = errorRepo
		pdf = &testhelpers.FakeExtractor{
			Result: domain.ExtractResult{Text: "RELEVE DE COMPTE", PageCount: 1},
		}
		csv = &testhelpers.FakeExtractor{
			Result: domain.ExtractResult{
				Text:      "Date;Libellé\n15/01/2024;PAIEMENT CB",
				PageCount: 1,
				Metadata:  map[string]string{"account_number": "12345678901"},
			},
		}
		aiClient = &testhelpers.FakeAI{Response: "all good"}
		clock = testhelpers.NewFakeClock(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
		handler = newHandler(httpserver.Options{})
	})

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	uploadPDF := func() string {
		body, ctype := multipartUpload("janvier.pdf", []byte("%PDF-fake"))
		req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
		req.Header.Set("Content-Type", ctype)
		rec := do(req)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		var res struct {
			Statement domain.Statement `json:"statement"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		return string(res.Statement.ID)
	}

	Describe("POST /v1/statements", func() {
		It("creates a statement from a PDF upload", func() {
			body, ctype := multipartUpload("janvier.pdf", []byte("%PDF-fake"))
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var res struct {
				Statement domain.Statement `json:"statement"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
			Expect(res.Statement.ID).NotTo(BeEmpty())
			Expect(res.Statement.Filename).To(Equal("janvier.pdf"))
			Expect(res.Statement.ExtractedText).To(Equal("RELEVE DE COMPTE"))
		})

		It("returns CSV metadata alongside the statement", func() {
			body, ctype := multipartUpload("releve.csv", []byte("Date;Libellé"))
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var res struct {
				Metadata map[string]string `json:"metadata"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
			Expect(res.Metadata).To(HaveKeyWithValue("account_number", "12345678901"))
		})

		It("rejects unsupported extensions with 400", func() {
			body, ctype := multipartUpload("notes.txt", []byte("hello"))
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var eb map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &eb)).To(Succeed())
			Expect(eb["error"]).To(Equal("ValidationError"))
			Expect(eb["message"]).NotTo(BeEmpty())
			Expect(eb).To(HaveKey("details"))
		})

		It("rejects a missing file field with 400", func() {
			body := &bytes.Buffer{}
			mw := multipart.NewWriter(body)
			Expect(mw.Close()).To(Succeed())
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 and persists nothing when extraction fails", func() {
			pdf.Err = errs.Extraction("no extractable text layer in PDF", nil)

			body, ctype := multipartUpload("scan.pdf", []byte("%PDF-image-only"))
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(repo.Items).To(BeEmpty())

			var eb map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &eb)).To(Succeed())
			Expect(eb["error"]).To(Equal("ExtractionError"))
		})

		It("returns 413 when the upload exceeds the limit", func() {
			handler = newHandler(httpserver.Options{MaxUploadMB: 1})

			big := bytes.Repeat([]byte("a"), 2*1024*1024)
			body, ctype := multipartUpload("janvier.pdf", big)
			req := httptest.NewRequest(http.MethodPost, "/v1/statements", body)
			req.Header.Set("Content-Type", ctype)

			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})
	})

	Describe("GET /v1/statements", func() {
		It("returns an empty array when nothing is uploaded", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON("[]"))
		})

		It("lists uploaded statements", func() {
			uploadPDF()

			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list []domain.Statement
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("GET /v1/statements/{id}", func() {
		It("returns the statement", func() {
			id := uploadPDF()

			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements/"+id, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown id", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements/nope", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))

			var eb map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &eb)).To(Succeed())
			Expect(eb["error"]).To(Equal("NotFoundError"))
		})
	})

	Describe("DELETE /v1/statements/{id}", func() {
		It("deletes the statement and its analyses", func() {
			id := uploadPDF()
			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusCreated))

			rec = do(httptest.NewRequest(http.MethodDelete, "/v1/statements/"+id, nil))
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(httptest.NewRequest(http.MethodGet, "/v1/statements/"+id, nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(analyses.Items).To(BeEmpty())
		})

		It("returns 404 for an unknown id", func() {
			rec := do(httptest.NewRequest(http.MethodDelete, "/v1/statements/nope", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /v1/statements/{id}/analyses", func() {
		It("creates an analysis", func() {
			id := uploadPDF()

			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var a map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &a)).To(Succeed())
			Expect(a["statement_id"]).To(Equal(id))
			Expect(a["response"]).To(Equal("all good"))
		})

		It("returns 404 for an unknown statement", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/nope/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 503 when the AI service fails", func() {
			id := uploadPDF()
			aiClient.Err = errs.AIService("chat completion failed", nil)

			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var eb map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &eb)).To(Succeed())
			Expect(eb["error"]).To(Equal("AIServiceError"))
		})

		It("returns 429 when the AI quota is exhausted", func() {
			id := uploadPDF()
			aiClient.Err = domai.ErrQuotaExceeded

			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		})

		It("rate limits when a limiter is configured", func() {
			handler = newHandler(httpserver.Options{
				AnalyzeLimiter: middleware.NewRateLimiter(1, 0),
			})
			id := uploadPDF()

			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusCreated))

			rec = do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		})
	})

	Describe("GET /v1/statements/{id}/analyses", func() {
		It("lists the statement's analyses in creation order", func() {
			id := uploadPDF()
			for i := 0; i < 2; i++ {
				rec := do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/statements/%s/analyses", id), nil))
				Expect(rec.Code).To(Equal(http.StatusCreated))
				clock.Advance(time.Minute)
			}

			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(2))
		})

		It("returns an empty array when none exist", func() {
			id := uploadPDF()
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON("[]"))
		})

		It("returns 404 for an unknown statement", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/statements/nope/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /v1/statements/{id}/errors", func() {
		It("lists audit entries after an AI failure", func() {
			id := uploadPDF()
			aiClient.Err = errs.AIService("boom", nil)
			rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			rec = do(httptest.NewRequest(http.MethodGet, "/v1/statements/"+id+"/errors", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(1))
			Expect(list[0]["phase"]).To(Equal("analyze"))
		})
	})

	Describe("GET /v1/analyses", func() {
		It("pages globally, newest first", func() {
			id := uploadPDF()
			for i := 0; i < 3; i++ {
				rec := do(httptest.NewRequest(http.MethodPost, "/v1/statements/"+id+"/analyses", nil))
				Expect(rec.Code).To(Equal(http.StatusCreated))
				clock.Advance(time.Minute)
			}

			rec := do(httptest.NewRequest(http.MethodGet, "/v1/analyses?page=1&page_size=2", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var list []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list).To(HaveLen(2))

			rec = do(httptest.NewRequest(http.MethodGet, "/v1/analyses?page=2&page_size=2", nil))
			var rest []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &rest)).To(Succeed())
			Expect(rest).To(HaveLen(1))
		})

		It("returns an empty array past the last page", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/analyses?page=9&page_size=10", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON("[]"))
		})
	})

	Describe("GET /v1/analyses/{id}", func() {
		It("returns 404 for an unknown id", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/v1/analyses/nope", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /health", func() {
		It("reports healthy with passing checks", func() {
			handler = newHandler(httpserver.Options{
				Health: map[string]middleware.HealthChecker{
					"db": middleware.CheckerFunc(func(context.Context) error { return nil }),
				},
			})
			rec := do(httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("reports unhealthy when a check fails", func() {
			handler = newHandler(httpserver.Options{
				Health: map[string]middleware.HealthChecker{
					"db": middleware.CheckerFunc(func(context.Context) error {
						return errors.New("connection refused")
					}),
				},
			})
			rec := do(httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var hs map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &hs)).To(Succeed())
			Expect(hs["status"]).To(Equal("unhealthy"))
		})
	})
})
