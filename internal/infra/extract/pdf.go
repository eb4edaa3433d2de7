package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bryanwahyu/finsight/internal/domain/errs"
	domain "github.com/bryanwahyu/finsight/internal/domain/statements"
)

// PDF extracts the text layer of a PDF document, page order preserved.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (e *PDF) Extract(data []byte) (res domain.ExtractResult, err error) {
	// the pdf library panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = errs.Extraction("not a valid PDF document", fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	if len(data) == 0 {
		return domain.ExtractResult{}, errs.Validation("uploaded file is empty")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.ExtractResult{}, errs.Extraction("not a valid PDF document", err)
	}

	var sb strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			// halaman rusak di-skip, halaman lain tetap diambil
			continue
		}
		if i > 1 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	extracted := strings.TrimSpace(sb.String())
	if extracted == "" {
		return domain.ExtractResult{}, errs.Extraction("no extractable text layer in PDF", nil).
			With("page_count", numPages)
	}

	return domain.ExtractResult{
		Text:      extracted,
		PageCount: numPages,
	}, nil
}
