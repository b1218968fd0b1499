// src/llm/prompts.go
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/username/finsight/src/models"
)

const maxTextPreview = 2000
const maxExtractionText = 3000

// BuildSummaryPrompt asks the model for a structured JSON summary of an
// analyzed document.
func BuildSummaryPrompt(docType models.DocumentType, text string, transactions []models.Transaction) string {
	sample := transactions
	if len(sample) > 5 {
		sample = sample[:5]
	}
	sampleJSON, _ := json.MarshalIndent(sample, "", "  ")

	var b strings.Builder
	b.WriteString("You are a financial analyst. Provide accurate, structured analysis of financial documents.\n\n")
	b.WriteString("Analyze this financial document and provide a comprehensive summary:\n\n")
	fmt.Fprintf(&b, "Document Type: %s\n", docType)
	fmt.Fprintf(&b, "Transaction Count: %d\n\n", len(transactions))
	b.WriteString("Text Preview:\n")
	b.WriteString(truncate(text, maxTextPreview))
	b.WriteString("\n\nSample Transactions:\n")
	b.Write(sampleJSON)
	b.WriteString("\n\nProvide a JSON object with:\n")
	b.WriteString("1. total_amount: sum of all transaction amounts\n")
	b.WriteString("2. date_range: {\"start\": ..., \"end\": ...}\n")
	b.WriteString("3. top_categories: top spending categories\n")
	b.WriteString("4. account_balances: if available\n")
	b.WriteString("5. key_insights: important observations (3-5 points)\n\n")
	b.WriteString("Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	return b.String()
}

// BuildRecommendationsPrompt asks the model for actionable recommendations
// given the finished analysis.
func BuildRecommendationsPrompt(result *models.AnalysisResult) string {
	var highRisk []models.Anomaly
	for _, a := range result.Anomalies {
		if a.RiskLevel == models.RiskHigh || a.RiskLevel == models.RiskCritical {
			highRisk = append(highRisk, a)
		}
	}
	type issue struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	issues := make([]issue, 0, len(highRisk))
	for _, a := range highRisk {
		issues = append(issues, issue{Type: a.Type, Description: a.Description})
	}
	issuesJSON, _ := json.MarshalIndent(issues, "", "  ")

	var b strings.Builder
	b.WriteString("You are a financial advisor providing practical recommendations.\n\n")
	b.WriteString("Based on the financial analysis, provide actionable recommendations:\n\n")
	fmt.Fprintf(&b, "Document Type: %s\n", result.DocumentType)
	fmt.Fprintf(&b, "Risk Score: %.1f/10\n", result.RiskScore)
	fmt.Fprintf(&b, "Total Amount: ₹%.2f\n", result.Summary.TotalAmount)
	fmt.Fprintf(&b, "Transactions: %d\n", result.Summary.TotalTransactions)
	fmt.Fprintf(&b, "High-Risk Anomalies: %d\n\n", len(highRisk))
	b.WriteString("High-Risk Issues:\n")
	b.Write(issuesJSON)
	b.WriteString("\n\nProvide 3-7 specific, actionable recommendations to improve financial health and security.\n")
	b.WriteString("Focus on fraud prevention, cost optimization, and financial planning.\n")
	return b.String()
}

// BuildTransactionExtractionPrompt asks the model to pull transactions out
// of raw text when rule-based extraction found none.
func BuildTransactionExtractionPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a data extraction specialist. Extract only clear, verifiable transaction data.\n\n")
	b.WriteString("Extract financial transactions from this text. Look for dates, amounts, and descriptions.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(truncate(text, maxExtractionText))
	b.WriteString("\n\nReturn a JSON array of transactions with fields: date, description, amount.\n")
	b.WriteString("Only include clear, identifiable transactions. If no transactions found, return an empty array.\n")
	b.WriteString("Return ONLY valid raw JSON. Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

// BuildChatPrompt builds the question-answering prompt over a stored
// analysis result.
func BuildChatPrompt(result *models.AnalysisResult, question string) string {
	summaryJSON, _ := json.MarshalIndent(result.Summary, "", "  ")
	anomaliesJSON, _ := json.MarshalIndent(result.Anomalies, "", "  ")
	sample := result.Transactions
	if len(sample) > 10 {
		sample = sample[:10]
	}
	sampleJSON, _ := json.MarshalIndent(sample, "", "  ")

	var b strings.Builder
	b.WriteString("You are a helpful financial assistant. Answer questions accurately based on the document analysis.\n\n")
	b.WriteString("Answer the user's question about their financial document:\n\n")
	fmt.Fprintf(&b, "Document: %s (%s)\n\n", result.Filename, result.DocumentType)
	fmt.Fprintf(&b, "Summary: %s\n\n", summaryJSON)
	fmt.Fprintf(&b, "Anomalies: %s\n\n", anomaliesJSON)
	fmt.Fprintf(&b, "Risk Score: %.1f/10\n\n", result.RiskScore)
	fmt.Fprintf(&b, "Sample Transactions: %s\n\n", sampleJSON)
	fmt.Fprintf(&b, "User Question: %s\n\n", question)
	b.WriteString("Provide a helpful, accurate answer based on the document analysis.\n")
	b.WriteString("Include specific numbers and examples when relevant.\n")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
