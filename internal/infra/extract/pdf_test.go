package extract_test

import (
	"bytes"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bryanwahyu/finsight/internal/domain/errs"
	"github.com/bryanwahyu/finsight/internal/infra/extract"
)

// buildPDF assembles a one-page PDF with a single text object, computing
// the xref offsets so the document is well formed.
func buildPDF(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 6)
	write := func(n int, s string) {
		offsets[n] = buf.Len()
		buf.WriteString(s)
	}

	buf.WriteString("%PDF-1.4\n")
	write(1, "1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	write(2, "2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	write(3, "3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	write(4, fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))
	write(5, "5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

var _ = Describe("PDF extractor", func() {
	var e *extract.PDF

	BeforeEach(func() {
		e = extract.NewPDF()
	})

	It("extracts the text layer", func() {
		res, err := e.Extract(buildPDF("Hello statement"))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring("Hello"))
		Expect(res.PageCount).To(Equal(1))
	})

	It("rejects empty input", func() {
		_, err := e.Extract(nil)
		Expect(errs.KindOf(err)).To(Equal(errs.KindValidation))
	})

	It("fails extraction on data that is not a PDF", func() {
		_, err := e.Extract([]byte("definitely not a pdf"))
		Expect(errs.KindOf(err)).To(Equal(errs.KindExtraction))
	})

	It("fails extraction on a truncated document", func() {
		doc := buildPDF("Hello statement")
		_, err := e.Extract(doc[:len(doc)/2])
		Expect(errs.KindOf(err)).To(Equal(errs.KindExtraction))
	})
})
