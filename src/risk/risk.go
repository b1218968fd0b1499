// src/risk/risk.go
package risk

import (
	"math"

	"github.com/username/finsight/src/models"
)

// Per-anomaly-type base weights used when aggregating anomaly findings.
// An unknown type falls back to 1.0.
var anomalyTypeWeights = map[string]float64{
	"high_value_transaction":              3.0,
	"high_risk_merchants":                 4.0,
	"foreign_transactions":                2.0,
	"overdraft_detected":                  4.5,
	"negative_balance":                    4.0,
	"suspicious_keywords":                 2.5,
	"potential_duplicate":                 1.5,
	"unusual_timing":                      1.0,
	"high_frequency_similar_transactions": 2.0,
	"statistical_outlier":                 1.5,
	"excessive_round_numbers":             0.5,
	"overdue_payment":                     2.0,
}

var riskLevelMultipliers = map[models.RiskLevel]float64{
	models.RiskLow:      0.5,
	models.RiskMedium:   1.0,
	models.RiskHigh:     2.0,
	models.RiskCritical: 3.0,
}

var documentTypeModifiers = map[models.DocumentType]float64{
	models.DocTypeBankStatement:      1.0, // standard baseline
	models.DocTypeInvoice:            0.8,
	models.DocTypeAnnualReport:       0.6,
	models.DocTypeTransactionHistory: 1.2, // tends to have more irregular patterns
	models.DocTypeOther:              0.9,
}

// Score combines anomaly findings and transaction statistics into a single
// 0-10 risk score: 60% anomaly risk, 40% transaction-pattern risk, scaled by
// a document-type modifier and clamped.
func Score(transactions []models.Transaction, anomalies []models.Anomaly, docType models.DocumentType) float64 {
	if len(transactions) == 0 && len(anomalies) == 0 {
		return 0.0
	}

	anomalyRisk := anomalyRisk(anomalies)
	transactionRisk := transactionRisk(transactions)

	modifier, ok := documentTypeModifiers[docType]
	if !ok {
		modifier = 1.0
	}

	final := (anomalyRisk*0.6 + transactionRisk*0.4) * modifier
	return math.Min(10.0, math.Max(0.0, final))
}

// anomalyRisk averages base_weight × level_multiplier × confidence over all
// findings, then adds a 0.1-per-finding bonus, capped at 8.0.
func anomalyRisk(anomalies []models.Anomaly) float64 {
	if len(anomalies) == 0 {
		return 0.0
	}

	total := 0.0
	for _, anomaly := range anomalies {
		weight, ok := anomalyTypeWeights[anomaly.Type]
		if !ok {
			weight = 1.0
		}
		multiplier, ok := riskLevelMultipliers[anomaly.RiskLevel]
		if !ok {
			multiplier = 1.0
		}
		total += weight * multiplier * anomaly.Confidence
	}

	average := total / float64(len(anomalies))
	// Diminishing returns for stacks of findings
	return math.Min(8.0, average+float64(len(anomalies))*0.1)
}

// transactionRisk averages the triggered pattern factors (volume, variance,
// max-amount tiers, debit skew), capped at 5.0. No triggered factor = zero.
func transactionRisk(transactions []models.Transaction) float64 {
	if len(transactions) == 0 {
		return 0.0
	}

	var factors []float64

	// Volume risk
	if len(transactions) > 100 {
		factors = append(factors, 1.0)
	} else if len(transactions) > 50 {
		factors = append(factors, 0.5)
	}

	var amounts []float64
	for _, tx := range transactions {
		if tx.Amount != 0 {
			amounts = append(amounts, math.Abs(tx.Amount))
		}
	}

	// Amount variance risk
	if len(amounts) > 1 {
		mean, stdev := meanStdev(amounts)
		if stdev > mean*2 {
			factors = append(factors, 1.5)
		} else if stdev > mean {
			factors = append(factors, 0.8)
		}
	}

	// Large transaction risk
	if len(amounts) > 0 {
		maxAmount := amounts[0]
		for _, a := range amounts[1:] {
			if a > maxAmount {
				maxAmount = a
			}
		}
		switch {
		case maxAmount > 1000000:
			factors = append(factors, 2.0)
		case maxAmount > 500000:
			factors = append(factors, 1.0)
		case maxAmount > 100000:
			factors = append(factors, 0.5)
		}
	}

	// Debit/credit skew
	debits, credits := 0, 0
	for _, tx := range transactions {
		if tx.Amount < 0 {
			debits++
		} else if tx.Amount > 0 {
			credits++
		}
	}
	if debits > credits*3 {
		factors = append(factors, 1.0)
	}

	if len(factors) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return math.Min(5.0, sum/float64(len(factors)))
}

func meanStdev(values []float64) (mean, stdev float64) {
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
	stdev = math.Sqrt(sumSq / float64(len(values)-1))
	return mean, stdev
}
