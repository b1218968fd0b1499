// src/llm/parse.go
package llm

import (
	"encoding/json"
	"strings"

	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/parsers"
)

const maxRecommendations = 7

// CleanModelJSON strips Markdown fences and surrounding prose the model may
// have wrapped around a JSON payload, keeping only the outermost object or
// array delimited by delimOpen/delimClose.
func CleanModelJSON(raw, delimOpen, delimClose string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there's still junk around the JSON, keep only from the first
	// opening delimiter to the last closing one.
	if start := strings.Index(s, delimOpen); start != -1 {
		if end := strings.LastIndex(s, delimClose); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// summaryResponse mirrors the JSON shape requested by BuildSummaryPrompt.
// Fields the model omits or garbles stay zero and are filled deterministically
// by the caller.
type summaryResponse struct {
	TotalAmount     float64          `json:"total_amount"`
	DateRange       models.DateRange `json:"date_range"`
	TopCategories   []json.RawMessage `json:"top_categories"`
	AccountBalances []json.RawMessage `json:"account_balances"`
	KeyInsights     []string         `json:"key_insights"`
}

// ParseSummaryResponse parses the model's summary JSON into the given
// deterministic base summary, overriding only the fields the model answered
// usably. Returns false when the payload was not parseable at all.
func ParseSummaryResponse(raw string, base *models.Summary) bool {
	clean := CleanModelJSON(raw, "{", "}")

	var resp summaryResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return false
	}

	if len(resp.KeyInsights) > 0 {
		insights := make([]string, 0, len(resp.KeyInsights))
		for _, insight := range resp.KeyInsights {
			insight = strings.TrimSpace(insight)
			if insight != "" {
				insights = append(insights, insight)
			}
		}
		if len(insights) > 0 {
			base.KeyInsights = insights
		}
	}
	if resp.DateRange.Start != "" && base.DateRange.Start == "" {
		base.DateRange = resp.DateRange
	}
	return true
}

// ParseRecommendations extracts individual recommendations from free-form
// model output. Lines prefixed with list markers ("1.", "-", "*", "•") are
// taken as items; markers are stripped. Output is capped at 7 entries.
func ParseRecommendations(raw string) []string {
	var recommendations []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item, ok := stripListMarker(line)
		if !ok || item == "" {
			continue
		}
		recommendations = append(recommendations, item)
		if len(recommendations) == maxRecommendations {
			break
		}
	}
	return recommendations
}

// stripListMarker removes a leading list marker from the line, reporting
// whether the line looked like a list item at all.
func stripListMarker(line string) (string, bool) {
	for _, marker := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	// Numbered markers: "1." / "1)" with one or two digits.
	i := 0
	for i < len(line) && i < 2 && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return "", false
}

// rawTransaction tolerates the loose typing of model output: amounts may come
// back as numbers or strings, dates in any format.
type rawTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
}

// ParseTransactionsJSON parses a model-produced JSON transaction array.
// Entries without a date or description are dropped; unparseable amounts
// become 0.0. A payload that is not a JSON array yields nil.
func ParseTransactionsJSON(raw string) []models.Transaction {
	clean := CleanModelJSON(raw, "[", "]")

	var rows []rawTransaction
	if err := json.Unmarshal([]byte(clean), &rows); err != nil {
		return nil
	}

	var transactions []models.Transaction
	for _, row := range rows {
		date := strings.TrimSpace(row.Date)
		description := strings.TrimSpace(row.Description)
		if date == "" || description == "" {
			continue
		}
		transactions = append(transactions, models.Transaction{
			Date:        date,
			Description: description,
			Amount:      parseRawAmount(row.Amount),
		})
	}
	return transactions
}

func parseRawAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.0
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return parsers.ParseAmount(text)
	}
	return 0.0
}
