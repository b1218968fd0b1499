// src/detector/detector_test.go
package detector

import (
	"testing"

	"github.com/username/finsight/src/models"
)

func anomalyTypes(anomalies []models.Anomaly) map[string]models.Anomaly {
	out := make(map[string]models.Anomaly, len(anomalies))
	for _, a := range anomalies {
		out[a.Type] = a
	}
	return out
}

func TestDetectEmptyInput(t *testing.T) {
	d := NewDetector(100000)
	if got := d.Detect(nil, models.DocTypeBankStatement, "overdraft everywhere"); len(got) != 0 {
		t.Errorf("expected no anomalies for empty transactions, got %d", len(got))
	}
}

func TestDetectHighValueTransaction(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "01/01/2024", Description: "PROPERTY PURCHASE", Amount: -250000},
		{Date: "02/01/2024", Description: "LUNCH", Amount: -300},
		{Date: "03/01/2024", Description: "BOOKS", Amount: -450},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	a, ok := found["high_value_transaction"]
	if !ok {
		t.Fatalf("expected high_value_transaction, got %v", found)
	}
	if a.RiskLevel != models.RiskHigh {
		t.Errorf("risk level = %v, want high", a.RiskLevel)
	}
	if a.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", a.Confidence)
	}
}

func TestDetectAmountAnomaliesNeedThreeAmounts(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "01/01/2024", Description: "BIG ONE", Amount: -250000},
		{Date: "02/01/2024", Description: "SMALL", Amount: -300},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	if _, ok := found["high_value_transaction"]; ok {
		t.Error("amount pass should be skipped with fewer than three nonzero amounts")
	}
}

func TestDetectRepeatedATMWithdrawals(t *testing.T) {
	d := NewDetector(100000)
	var txs []models.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, models.Transaction{
			Date:        "15/01/2024",
			Description: "ATM WITHDRAWAL MG ROAD",
			Amount:      -50000,
		})
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeBankStatement, ""))

	for _, want := range []string{
		"high_frequency_similar_transactions",
		"potential_duplicate",
		"excessive_round_numbers",
		"high_risk_merchants",
	} {
		if _, ok := found[want]; !ok {
			t.Errorf("expected %s in findings, got %v", want, found)
		}
	}
	if a := found["high_risk_merchants"]; a.RiskLevel != models.RiskHigh {
		t.Errorf("high_risk_merchants level = %v, want high", a.RiskLevel)
	}
}

func TestDetectDuplicatesSkipUnparseableDates(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "sometime", Description: "SUBSCRIPTION", Amount: -999},
		{Date: "later", Description: "SUBSCRIPTION", Amount: -999},
		{Date: "01/01/2024", Description: "PADDING", Amount: -10},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	if _, ok := found["potential_duplicate"]; ok {
		t.Error("duplicate pass must skip pairs whose dates cannot be parsed")
	}
}

func TestDetectDuplicatesWithinOneDay(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "15/01/2024", Description: "Vendor Payment", Amount: -5001},
		{Date: "16/01/2024", Description: "vendor payment", Amount: -5001},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	if _, ok := found["potential_duplicate"]; !ok {
		t.Errorf("expected potential_duplicate for same amount one day apart, got %v", found)
	}
}

func TestDetectLateNightPattern(t *testing.T) {
	d := NewDetector(100000)
	var txs []models.Transaction
	for _, ts := range []string{"23:15", "01:30", "03:45", "04:10"} {
		txs = append(txs, models.Transaction{
			Date:        "15/01/2024",
			Description: "POS PURCHASE " + ts,
			Amount:      -120,
		})
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	if _, ok := found["unusual_timing"]; !ok {
		t.Errorf("expected unusual_timing for four late-night transactions, got %v", found)
	}
}

func TestDetectSuspiciousKeywordsAndForeign(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "15/01/2024", Description: "CRYPTO EXCHANGE DEPOSIT", Amount: -2000},
		{Date: "16/01/2024", Description: "USD REMITTANCE", Amount: -3000},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, ""))
	if _, ok := found["suspicious_keywords"]; !ok {
		t.Errorf("expected suspicious_keywords, got %v", found)
	}
	if _, ok := found["foreign_transactions"]; !ok {
		t.Errorf("expected foreign_transactions, got %v", found)
	}
}

func TestDetectForeignFromRawTextOnly(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "15/01/2024", Description: "LOCAL SHOP", Amount: -100},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeOther, "international wire section"))
	if _, ok := found["foreign_transactions"]; !ok {
		t.Errorf("expected foreign_transactions from raw text indicator, got %v", found)
	}
}

func TestDetectBankStatementPasses(t *testing.T) {
	d := NewDetector(100000)
	negative := -1500.0
	txs := []models.Transaction{
		{Date: "15/01/2024", Description: "CHEQUE RETURN", Amount: -500, Balance: &negative},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeBankStatement, "insufficient funds notice"))
	if a, ok := found["overdraft_detected"]; !ok || a.RiskLevel != models.RiskHigh {
		t.Errorf("expected high-risk overdraft_detected, got %v", found)
	}
	a, ok := found["negative_balance"]
	if !ok {
		t.Fatalf("expected negative_balance, got %v", found)
	}
	if a.Details["min_balance"] != -1500.0 {
		t.Errorf("min_balance = %v, want -1500", a.Details["min_balance"])
	}
}

func TestDetectInvoicePass(t *testing.T) {
	d := NewDetector(100000)
	txs := []models.Transaction{
		{Date: "15/01/2024", Description: "CONSULTING SERVICES", Amount: 12000},
	}

	found := anomalyTypes(d.Detect(txs, models.DocTypeInvoice, "payment is past due, penalty applies"))
	if _, ok := found["overdue_payment"]; !ok {
		t.Errorf("expected overdue_payment for invoice, got %v", found)
	}
	// Bank statement passes must not run for invoices.
	if _, ok := found["overdraft_detected"]; ok {
		t.Error("overdraft pass should not run for invoices")
	}
}
