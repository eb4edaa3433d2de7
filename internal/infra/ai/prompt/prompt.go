package prompt

import (
	"fmt"
	"strings"
)

// maxStatementChars caps how much statement text is embedded in a prompt
// so a very long statement cannot blow past the model context window.
const maxStatementChars = 24000

// SystemPrompt provides strict directions for the analysis output.
func SystemPrompt() string {
	return `You are a personal finance analyst helping someone understand their bank statement. You will receive the raw text extracted from one statement.

Requirements:
- Base every observation strictly on the statement text; never invent transactions or balances.
- Summarize overall inflow and outflow, and the largest recurring expenses.
- Group spending into plain categories (housing, groceries, transport, subscriptions, other).
- Point out anything unusual: duplicate charges, fees, large one-off debits.
- Finish with two or three concrete, actionable suggestions.
- Write in plain prose. No markdown tables, no code fences.`
}

// UserPrompt builds the deterministic user message embedding the statement text.
// Prompt yang sama untuk teks yang sama, supaya hasil bisa diaudit.
func UserPrompt(statementText string) string {
	text := statementText
	if len(text) > maxStatementChars {
		text = text[:maxStatementChars]
	}
	text = strings.TrimSpace(text)
	return fmt.Sprintf("Analyze the following bank statement and respond per the instructions.\n\n--- STATEMENT START ---\n%s\n--- STATEMENT END ---", text)
}
