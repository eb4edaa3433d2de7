package extract

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bryanwahyu/finsight/internal/domain/errs"
	domain "github.com/bryanwahyu/finsight/internal/domain/statements"
)

// CSV parses bank statement exports in the Crédit Agricole layout:
// metadata header lines followed by a "Date;Libellé;Débit;Crédit" table.
type CSV struct{}

func NewCSV() *CSV { return &CSV{} }

var (
	reDate        = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
	reAccountNum  = regexp.MustCompile(`n.?\s*(\d+)`)
	reBalance     = regexp.MustCompile(`Solde au (\d{2}/\d{2}/\d{4})\s*([\d\s\x{00a0},]+)`)
	reDateRange   = regexp.MustCompile(`entre le (\d{2}/\d{2}/\d{4}) et le (\d{2}/\d{2}/\d{4})`)
	reAmountChars = regexp.MustCompile(`[^0-9.,]`)
)

func (e *CSV) Extract(data []byte) (domain.ExtractResult, error) {
	if len(data) == 0 {
		return domain.ExtractResult{}, errs.Validation("uploaded file is empty")
	}

	content := decodeStatement(data)
	if strings.TrimSpace(content) == "" {
		return domain.ExtractResult{}, errs.Extraction("CSV file is empty", nil).
			With("file_size", len(data))
	}

	meta := extractMetadata(content)

	txs, err := parseTransactions(content)
	if err != nil {
		return domain.ExtractResult{}, errs.Extraction("failed to process CSV file", err)
	}
	if len(txs) == 0 {
		return domain.ExtractResult{}, errs.Extraction("no transactions found in CSV", nil).
			With("content_length", len(content))
	}

	return domain.ExtractResult{
		Text:         content,
		PageCount:    1,
		Metadata:     meta,
		Transactions: txs,
	}, nil
}

// decodeStatement coba UTF-8 dulu, fallback latin-1 untuk karakter Perancis (é, è, dst)
func decodeStatement(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

// extractMetadata reads account holder, account number, balance and the
// statement period from the header lines above the transaction table.
func extractMetadata(content string) map[string]string {
	meta := map[string]string{}
	lines := strings.Split(content, "\n")
	if len(lines) > 15 {
		lines = lines[:15]
	}
	for _, line := range lines {
		if strings.Contains(line, "MONSIEUR") || strings.Contains(line, "MADAME") {
			meta["account_holder"] = strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(line), ";", ""))
		}
		if strings.Contains(line, "Compte") {
			if m := reAccountNum.FindStringSubmatch(line); m != nil {
				meta["account_number"] = m[1]
			}
		}
		if strings.Contains(line, "Solde au") {
			if m := reBalance.FindStringSubmatch(line); m != nil {
				meta["balance_date"] = m[1]
				amount := strings.NewReplacer(" ", "", "\u00a0", "").Replace(m[2])
				meta["balance"] = strings.TrimSpace(amount)
			}
		}
		if strings.Contains(line, "Liste des op") && strings.Contains(line, "entre le") {
			if m := reDateRange.FindStringSubmatch(line); m != nil {
				meta["period_start"] = m[1]
				meta["period_end"] = m[2]
			}
		}
	}
	return meta
}

func parseTransactions(content string) ([]domain.Transaction, error) {
	lines := strings.Split(content, "\n")

	start := -1
	for idx, line := range lines {
		if strings.Contains(line, "Date;Libell") {
			start = idx + 1
			break
		}
	}
	if start == -1 {
		return nil, nil
	}

	// csv.Reader supaya description multi-baris dalam kutip tetap kebaca
	r := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var txs []domain.Transaction
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 4 {
			continue
		}

		date := strings.TrimSpace(row[0])
		if !reDate.MatchString(date) {
			continue
		}

		txs = append(txs, domain.Transaction{
			Date:        date,
			Description: strings.TrimSpace(row[1]),
			Debit:       parseAmount(row[2]),
			Credit:      parseAmount(row[3]),
		})
	}
	return txs, nil
}

// parseAmount handles the French number format: "3 312,37" → 3312.37.
// Unparseable amounts come back as zero rather than failing the whole file.
func parseAmount(s string) decimal.Decimal {
	cleaned := reAmountChars.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
