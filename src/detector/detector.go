// src/detector/detector.go
package detector

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/parsers"
)

// Detector runs independent heuristic passes over a transaction list and
// reports tagged anomaly findings. Findings from different passes are never
// merged: each pass is independent evidence, and overlap is intentional.
type Detector struct {
	// HighRiskAmount is the absolute amount above which a single
	// transaction is flagged outright (currency units).
	HighRiskAmount float64
}

// NewDetector returns a Detector using the given high-risk amount threshold.
func NewDetector(highRiskAmount float64) *Detector {
	return &Detector{HighRiskAmount: highRiskAmount}
}

// Detect runs every pass in fixed order plus the document-type-specific
// passes. Returns an empty list immediately when there are no transactions.
func (d *Detector) Detect(transactions []models.Transaction, docType models.DocumentType, rawText string) []models.Anomaly {
	var anomalies []models.Anomaly
	if len(transactions) == 0 {
		return anomalies
	}

	anomalies = append(anomalies, d.detectAmountAnomalies(transactions)...)
	anomalies = append(anomalies, detectFrequencyAnomalies(transactions)...)
	anomalies = append(anomalies, detectDuplicateTransactions(transactions)...)
	anomalies = append(anomalies, detectRoundNumberAnomalies(transactions)...)
	anomalies = append(anomalies, detectTimePatternAnomalies(transactions)...)
	anomalies = append(anomalies, detectSuspiciousKeywords(transactions)...)
	anomalies = append(anomalies, detectForeignTransactions(transactions, rawText)...)
	anomalies = append(anomalies, detectHighRiskMerchants(transactions)...)

	switch docType {
	case models.DocTypeBankStatement:
		anomalies = append(anomalies, detectBankStatementAnomalies(transactions, rawText)...)
	case models.DocTypeInvoice:
		anomalies = append(anomalies, detectInvoiceAnomalies(rawText)...)
	}
	return anomalies
}

// detectAmountAnomalies flags absolute-threshold breaches (HIGH) and
// mean+3·stdev statistical outliers (MEDIUM). The statistical pass needs at
// least three nonzero amounts and a positive standard deviation.
func (d *Detector) detectAmountAnomalies(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	var amounts []float64
	for _, tx := range transactions {
		if tx.Amount != 0 {
			amounts = append(amounts, math.Abs(tx.Amount))
		}
	}
	if len(amounts) < 3 {
		return anomalies
	}

	mean, stdev := meanStdev(amounts)
	outlierThreshold := mean + 3*stdev

	for _, tx := range transactions {
		amount := math.Abs(tx.Amount)
		switch {
		case amount > d.HighRiskAmount:
			anomalies = append(anomalies, models.Anomaly{
				Type:        "high_value_transaction",
				Description: fmt.Sprintf("Very high transaction amount: ₹%.2f", amount),
				RiskLevel:   models.RiskHigh,
				Confidence:  0.9,
				Details: map[string]any{
					"amount":      amount,
					"threshold":   d.HighRiskAmount,
					"transaction": tx,
				},
			})
		case amount > outlierThreshold && stdev > 0:
			anomalies = append(anomalies, models.Anomaly{
				Type:        "statistical_outlier",
				Description: fmt.Sprintf("Amount significantly higher than average: ₹%.2f (avg: ₹%.2f)", amount, mean),
				RiskLevel:   models.RiskMedium,
				Confidence:  0.7,
				Details: map[string]any{
					"amount":      amount,
					"mean":        mean,
					"std_dev":     stdev,
					"transaction": tx,
				},
			})
		}
	}
	return anomalies
}

// detectFrequencyAnomalies groups transactions by their first three
// description words and flags groups of five or more that reuse at most two
// distinct amounts.
func detectFrequencyAnomalies(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	groups := make(map[string][]models.Transaction)
	var order []string
	for _, tx := range transactions {
		key := descriptionPrefix(tx.Description, 3)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 5 {
			continue
		}
		amounts := make([]float64, len(group))
		distinct := make(map[float64]struct{})
		for i, tx := range group {
			amounts[i] = tx.Amount
			distinct[tx.Amount] = struct{}{}
		}
		if len(distinct) > 2 {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        "high_frequency_similar_transactions",
			Description: fmt.Sprintf("Multiple similar transactions: %d transactions to '%s'", len(group), key),
			RiskLevel:   models.RiskMedium,
			Confidence:  0.8,
			Details: map[string]any{
				"count":               len(group),
				"description_pattern": key,
				"amounts":             amounts,
				"transactions":        group,
			},
		})
	}
	return anomalies
}

// detectDuplicateTransactions flags groups sharing exact (amount, normalized
// description) whose dates are identical or within one day of each other.
// Pairs where either date fails to parse are skipped rather than compared
// against a default.
func detectDuplicateTransactions(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	type groupKey struct {
		amount      float64
		description string
	}
	groups := make(map[groupKey][]models.Transaction)
	var order []groupKey
	for _, tx := range transactions {
		key := groupKey{tx.Amount, strings.ToLower(strings.TrimSpace(tx.Description))}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		var dates []string
		for _, tx := range group {
			if tx.Date != "" {
				dates = append(dates, tx.Date)
			}
		}
		if len(dates) < 2 {
			continue
		}
		if !datesClose(dates) {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        "potential_duplicate",
			Description: fmt.Sprintf("Potential duplicate transactions: ₹%g - %s", key.amount, key.description),
			RiskLevel:   models.RiskMedium,
			Confidence:  0.7,
			Details: map[string]any{
				"count":        len(group),
				"amount":       key.amount,
				"description":  key.description,
				"transactions": group,
			},
		})
	}
	return anomalies
}

// datesClose reports whether all dates are identical, or any parseable pair
// is at most one day apart.
func datesClose(dates []string) bool {
	distinct := make(map[string]struct{})
	for _, d := range dates {
		distinct[d] = struct{}{}
	}
	if len(distinct) == 1 {
		return true
	}
	for i := range dates {
		a, okA := parsers.ParseDateLenient(dates[i])
		if !okA {
			continue
		}
		for j := i + 1; j < len(dates); j++ {
			if dates[i] == dates[j] {
				continue
			}
			b, okB := parsers.ParseDateLenient(dates[j])
			if !okB {
				continue
			}
			if math.Abs(a.Sub(b).Hours()) <= 24 {
				return true
			}
		}
	}
	return false
}

// detectRoundNumberAnomalies flags the set when transactions of at least
// 1000 divisible by 500 or 1000 exceed 30% of all transactions.
func detectRoundNumberAnomalies(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	var round []models.Transaction
	for _, tx := range transactions {
		amount := math.Abs(tx.Amount)
		if amount >= 1000 && (math.Mod(amount, 1000) == 0 || math.Mod(amount, 500) == 0) {
			round = append(round, tx)
		}
	}
	if float64(len(round)) <= float64(len(transactions))*0.3 {
		return anomalies
	}

	sample := round
	if len(sample) > 5 {
		sample = sample[:5]
	}
	anomalies = append(anomalies, models.Anomaly{
		Type:        "excessive_round_numbers",
		Description: fmt.Sprintf("High proportion of round number transactions: %d/%d", len(round), len(transactions)),
		RiskLevel:   models.RiskLow,
		Confidence:  0.5,
		Details: map[string]any{
			"round_transaction_count": len(round),
			"total_transactions":      len(transactions),
			"percentage":              float64(len(round)) / float64(len(transactions)) * 100,
			"round_transactions":      sample,
		},
	})
	return anomalies
}

var timeTokenRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// detectTimePatternAnomalies flags lists with more than three transactions
// whose descriptions embed an HH:MM token between 23:00 and 05:59.
func detectTimePatternAnomalies(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	var night []models.Transaction
	for _, tx := range transactions {
		match := timeTokenRe.FindStringSubmatch(tx.Description)
		if match == nil {
			continue
		}
		hour, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if hour >= 23 || hour <= 5 {
			night = append(night, tx)
		}
	}
	if len(night) <= 3 {
		return anomalies
	}

	anomalies = append(anomalies, models.Anomaly{
		Type:        "unusual_timing",
		Description: fmt.Sprintf("Multiple late-night transactions detected: %d transactions", len(night)),
		RiskLevel:   models.RiskMedium,
		Confidence:  0.6,
		Details: map[string]any{
			"count":        len(night),
			"transactions": night,
		},
	})
	return anomalies
}

// detectSuspiciousKeywords flags transactions whose descriptions contain a
// risky keyword. One finding covers all matching transactions.
func detectSuspiciousKeywords(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	var flagged []models.Transaction
	matched := make(map[string]struct{})
	for _, tx := range transactions {
		lower := strings.ToLower(tx.Description)
		for _, keyword := range suspiciousKeywords {
			if strings.Contains(lower, keyword) {
				flagged = append(flagged, tx)
				matched[keyword] = struct{}{}
				break
			}
		}
	}
	if len(flagged) == 0 {
		return anomalies
	}

	anomalies = append(anomalies, models.Anomaly{
		Type:        "suspicious_keywords",
		Description: fmt.Sprintf("Transactions with potentially risky keywords: %d found", len(flagged)),
		RiskLevel:   models.RiskMedium,
		Confidence:  0.6,
		Details: map[string]any{
			"count":          len(flagged),
			"keywords_found": keys(matched),
			"transactions":   flagged,
		},
	})
	return anomalies
}

// detectForeignTransactions flags foreign/currency indicators appearing in
// transaction descriptions or anywhere in the raw document text.
func detectForeignTransactions(transactions []models.Transaction, rawText string) []models.Anomaly {
	var anomalies []models.Anomaly

	var foreign []models.Transaction
	for _, tx := range transactions {
		lower := strings.ToLower(tx.Description)
		for _, indicator := range foreignIndicators {
			if strings.Contains(lower, indicator) {
				foreign = append(foreign, tx)
				break
			}
		}
	}

	rawLower := strings.ToLower(rawText)
	textHit := false
	for _, indicator := range foreignIndicators {
		if strings.Contains(rawLower, indicator) {
			textHit = true
			break
		}
	}

	if len(foreign) == 0 && !textHit {
		return anomalies
	}
	anomalies = append(anomalies, models.Anomaly{
		Type:        "foreign_transactions",
		Description: fmt.Sprintf("Foreign/international transactions detected: %d transactions", len(foreign)),
		RiskLevel:   models.RiskMedium,
		Confidence:  0.7,
		Details: map[string]any{
			"count":           len(foreign),
			"transactions":    foreign,
			"text_indicators": textHit,
		},
	})
	return anomalies
}

// detectHighRiskMerchants flags transactions whose descriptions match an
// ATM/casino/payday-loan/money-transfer style pattern.
func detectHighRiskMerchants(transactions []models.Transaction) []models.Anomaly {
	var anomalies []models.Anomaly

	var risky []models.Transaction
	matched := make(map[string]struct{})
	for _, tx := range transactions {
		lower := strings.ToLower(tx.Description)
		for _, pattern := range highRiskMerchantPatterns {
			if strings.Contains(lower, pattern) {
				risky = append(risky, tx)
				matched[pattern] = struct{}{}
				break
			}
		}
	}
	if len(risky) == 0 {
		return anomalies
	}

	anomalies = append(anomalies, models.Anomaly{
		Type:        "high_risk_merchants",
		Description: fmt.Sprintf("Transactions with high-risk merchants: %d found", len(risky)),
		RiskLevel:   models.RiskHigh,
		Confidence:  0.8,
		Details: map[string]any{
			"count":         len(risky),
			"risk_patterns": keys(matched),
			"transactions":  risky,
		},
	})
	return anomalies
}

// detectBankStatementAnomalies covers overdraft keywords in the raw text and
// negative running balances on transactions.
func detectBankStatementAnomalies(transactions []models.Transaction, rawText string) []models.Anomaly {
	var anomalies []models.Anomaly

	rawLower := strings.ToLower(rawText)
	var found []string
	for _, keyword := range overdraftKeywords {
		if strings.Contains(rawLower, keyword) {
			found = append(found, keyword)
		}
	}
	if len(found) > 0 {
		anomalies = append(anomalies, models.Anomaly{
			Type:        "overdraft_detected",
			Description: "Overdraft or insufficient funds indicators found",
			RiskLevel:   models.RiskHigh,
			Confidence:  0.9,
			Details:     map[string]any{"keywords_found": found},
		})
	}

	var negative []models.Transaction
	minBalance := 0.0
	for _, tx := range transactions {
		if tx.Balance != nil && *tx.Balance < 0 {
			negative = append(negative, tx)
			if *tx.Balance < minBalance {
				minBalance = *tx.Balance
			}
		}
	}
	if len(negative) > 0 {
		sample := negative
		if len(sample) > 3 {
			sample = sample[:3]
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        "negative_balance",
			Description: fmt.Sprintf("Negative account balance detected in %d transactions", len(negative)),
			RiskLevel:   models.RiskHigh,
			Confidence:  0.9,
			Details: map[string]any{
				"count":        len(negative),
				"min_balance":  minBalance,
				"transactions": sample,
			},
		})
	}
	return anomalies
}

// detectInvoiceAnomalies covers overdue/late-payment keywords in the raw text.
func detectInvoiceAnomalies(rawText string) []models.Anomaly {
	var anomalies []models.Anomaly

	rawLower := strings.ToLower(rawText)
	var found []string
	for _, keyword := range overdueKeywords {
		if strings.Contains(rawLower, keyword) {
			found = append(found, keyword)
		}
	}
	if len(found) == 0 {
		return anomalies
	}
	anomalies = append(anomalies, models.Anomaly{
		Type:        "overdue_payment",
		Description: "Overdue payment indicators found",
		RiskLevel:   models.RiskMedium,
		Confidence:  0.8,
		Details:     map[string]any{"keywords_found": found},
	})
	return anomalies
}

func descriptionPrefix(description string, words int) string {
	fields := strings.Fields(description)
	if len(fields) > words {
		fields = fields[:words]
	}
	return strings.ToLower(strings.Join(fields, " "))
}

func meanStdev(values []float64) (mean, stdev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, v := range values {
		sumSq += (v - mean) * (v - mean)
	}
	// Sample standard deviation
	stdev = math.Sqrt(sumSq / float64(len(values)-1))
	return mean, stdev
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
