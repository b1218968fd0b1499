// src/parsers/classifier.go
package parsers

import (
	"strings"

	"github.com/username/finsight/src/models"
)

// Keyword tables for content-based classification. Kept as data so they can
// be tuned and tested without touching the classifier itself.
var (
	bankStatementKeywords = []string{
		"account number", "opening balance", "closing balance",
		"transaction", "debit", "credit", "bank statement",
	}
	invoiceKeywords = []string{
		"invoice", "bill", "due date", "amount due",
		"payment terms", "tax id",
	}
	annualReportKeywords = []string{
		"annual report", "financial statement", "balance sheet",
		"income statement", "cash flow", "assets", "liabilities",
	}

	// Filename hints checked before content scoring.
	bankFilenameHints    = []string{"statement", "bank"}
	invoiceFilenameHints = []string{"invoice", "bill"}
	reportFilenameHints  = []string{"report", "annual"}
)

// ClassifyDocument detects the type of a financial document from its
// extracted text and original filename. Filename hints take priority over
// content; content is scored by keyword hits with fixed thresholds
// (bank >= 3, invoice >= 2, report >= 2, checked in that order).
func ClassifyDocument(text, filename string) models.DocumentType {
	textLower := strings.ToLower(text)
	filenameLower := strings.ToLower(filename)

	switch {
	case containsAny(filenameLower, bankFilenameHints):
		return models.DocTypeBankStatement
	case containsAny(filenameLower, invoiceFilenameHints):
		return models.DocTypeInvoice
	case containsAny(filenameLower, reportFilenameHints):
		return models.DocTypeAnnualReport
	}

	bankScore := countHits(textLower, bankStatementKeywords)
	invoiceScore := countHits(textLower, invoiceKeywords)
	reportScore := countHits(textLower, annualReportKeywords)

	switch {
	case bankScore >= 3:
		return models.DocTypeBankStatement
	case invoiceScore >= 2:
		return models.DocTypeInvoice
	case reportScore >= 2:
		return models.DocTypeAnnualReport
	}
	return models.DocTypeOther
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return hits
}
