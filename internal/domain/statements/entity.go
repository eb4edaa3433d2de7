package statements

import (
	"time"

	"github.com/shopspring/decimal"
)

// ID tipe untuk Statement
type StatementID string

// Format enum untuk sumber dokumen
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// Aggregate Root: Statement
// Dibuat sekali saat upload sukses, tidak pernah dimutasi.
type Statement struct {
	ID            StatementID `json:"id"`
	Filename      string      `json:"filename"`
	Format        Format      `json:"format"`
	ExtractedText string      `json:"extracted_text"`
	PageCount     int         `json:"page_count"`
	CharCount     int         `json:"character_count"`
	SourceURL     string      `json:"source_url,omitempty"`
	UploadedAt    time.Time   `json:"uploaded_at"`
}

// Transaction value object, hasil parsing statement CSV.
// Debit/Credit pakai decimal supaya jumlah uang tidak kena float error.
type Transaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// ExtractResult hasil dari Extractor
type ExtractResult struct {
	Text         string
	PageCount    int
	Metadata     map[string]string
	Transactions []Transaction
}
