// src/models/models.go
package models

import "time"

// DocumentType is the coarse classification of a financial document.
type DocumentType string

const (
	DocTypeBankStatement      DocumentType = "bank_statement"
	DocTypeInvoice            DocumentType = "invoice"
	DocTypeAnnualReport       DocumentType = "annual_report"
	DocTypeTransactionHistory DocumentType = "transaction_history"
	DocTypeOther              DocumentType = "other"
)

// RiskLevel is an ordered severity classification attached to one anomaly.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Ordinal returns the rank of a risk level so levels can be compared.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// Transaction is one financial line item extracted from a document.
// Date is kept as the raw string from the source; Amount is always a
// parseable float (malformed input parses to 0.0). Negative = debit.
type Transaction struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    string   `json:"category,omitempty"`
	Account     string   `json:"account,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
}

// Anomaly is one detector finding. Details must retain enough structured
// evidence (counts, thresholds, implicated transactions, matched keywords)
// to audit the finding.
type Anomaly struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	RiskLevel   RiskLevel      `json:"risk_level"`
	Confidence  float64        `json:"confidence"`
	Details     map[string]any `json:"details"`
}

// DateRange holds raw min/max date strings, not chronologically validated.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// CategoryTotal is one entry of a summary's top-categories list.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// AccountBalance is the last known running balance for one account.
type AccountBalance struct {
	Account string  `json:"account"`
	Balance float64 `json:"balance"`
}

// Summary aggregates a transaction set. It is recomputed wholesale on every
// analysis run, never incrementally updated.
type Summary struct {
	TotalTransactions int              `json:"total_transactions"`
	TotalAmount       float64          `json:"total_amount"`
	DateRange         DateRange        `json:"date_range"`
	TopCategories     []CategoryTotal  `json:"top_categories"`
	AccountBalances   []AccountBalance `json:"account_balances"`
	KeyInsights       []string         `json:"key_insights"`
}

// AnalysisResult is the terminal artifact of one document run. It is
// immutable once produced; reprocessing creates a new result.
type AnalysisResult struct {
	DocumentID      string         `json:"document_id"`
	Filename        string         `json:"filename"`
	DocumentType    DocumentType   `json:"document_type"`
	ProcessedAt     time.Time      `json:"processed_at"`
	Summary         Summary        `json:"summary"`
	Transactions    []Transaction  `json:"transactions"`
	Anomalies       []Anomaly      `json:"anomalies"`
	RiskScore       float64        `json:"risk_score"`
	Recommendations []string       `json:"recommendations"`
	ExtractableData map[string]any `json:"extractable_data"`
}

// DocumentListing is the compact per-document view returned by list endpoints.
type DocumentListing struct {
	DocumentID       string       `json:"document_id"`
	Filename         string       `json:"filename"`
	DocumentType     DocumentType `json:"document_type"`
	RiskScore        float64      `json:"risk_score"`
	TransactionCount int          `json:"transaction_count"`
	AnomalyCount     int          `json:"anomaly_count"`
	ProcessedAt      time.Time    `json:"processed_at"`
}

// ChatQuery is a question about a previously analyzed document.
type ChatQuery struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

// ChatResponse is the assistant's answer to a ChatQuery.
type ChatResponse struct {
	Answer     string `json:"answer"`
	DocumentID string `json:"document_id"`
}
