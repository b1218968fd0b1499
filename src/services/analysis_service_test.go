// src/services/analysis_service_test.go
package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/detector"
	"github.com/username/finsight/src/llm"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		HighRiskTransactionAmount: 100000,
		FraudDetectionEnabled:     true,
		MaxUploadSizeBytes:        50 * 1024 * 1024,
	}
	os.Exit(m.Run())
}

// mockCompleter returns canned responses keyed by a substring of the prompt,
// or fails every call when err is set.
type mockCompleter struct {
	err       error
	responses map[string]string
	calls     []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.calls = append(m.calls, prompt)
	if m.err != nil {
		return "", m.err
	}
	for marker, response := range m.responses {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return "", llm.ErrUnavailable
}

// mockStore keeps results in memory, keyed the same way the SQLite store is.
type mockStore struct {
	results       map[string]*models.AnalysisResult // documentID -> result
	hashes        map[string]string                 // sessionID+hash -> documentID
	sessions      map[string]string                 // documentID -> sessionID
	conversations int
	saveConvErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		results:  make(map[string]*models.AnalysisResult),
		hashes:   make(map[string]string),
		sessions: make(map[string]string),
	}
}

func (m *mockStore) SaveResult(_ context.Context, sessionID, contentHash string, result *models.AnalysisResult) error {
	m.results[result.DocumentID] = result
	m.hashes[sessionID+"/"+contentHash] = result.DocumentID
	m.sessions[result.DocumentID] = sessionID
	return nil
}

func (m *mockStore) FindByContentHash(_ context.Context, sessionID, contentHash string) (*models.AnalysisResult, error) {
	if documentID, ok := m.hashes[sessionID+"/"+contentHash]; ok {
		return m.results[documentID], nil
	}
	return nil, ErrDocumentNotFound
}

func (m *mockStore) GetResult(_ context.Context, sessionID, documentID string) (*models.AnalysisResult, error) {
	result, ok := m.results[documentID]
	if !ok || m.sessions[documentID] != sessionID {
		return nil, ErrDocumentNotFound
	}
	return result, nil
}

func (m *mockStore) ListResults(_ context.Context, sessionID string) ([]models.DocumentListing, error) {
	var listings []models.DocumentListing
	for documentID, result := range m.results {
		if m.sessions[documentID] != sessionID {
			continue
		}
		listings = append(listings, models.DocumentListing{
			DocumentID:   result.DocumentID,
			Filename:     result.Filename,
			DocumentType: result.DocumentType,
			RiskScore:    result.RiskScore,
			ProcessedAt:  result.ProcessedAt,
		})
	}
	return listings, nil
}

func (m *mockStore) SaveConversation(_ context.Context, _, _, _, _ string) error {
	m.conversations++
	return m.saveConvErr
}

func newTestService(store DocumentStore, completer llm.Completer) AnalysisService {
	return NewAnalysisService(store, completer, detector.NewDetector(100000), processors.NewCategoryProcessor())
}

func writeStatementCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	content := "Date,Description,Amount,Balance\n" +
		"15/01/2024,SALARY CREDIT JAN,75000,80000\n" +
		"16/01/2024,ATM WITHDRAWAL MG ROAD,-5000,75000\n" +
		"18/01/2024,SWIGGY ORDER,-450.50,74549.50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeDocumentUnsupportedExtension(t *testing.T) {
	svc := newTestService(newMockStore(), nil)
	_, err := svc.AnalyzeDocument(context.Background(), "session-1", "/tmp/whatever.exe", "whatever.exe")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestAnalyzeDocumentEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("   \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(newMockStore(), nil)
	_, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "empty.csv")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestAnalyzeDocumentWithoutAssistant(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, nil)
	path := writeStatementCSV(t)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if result.DocumentID == "" {
		t.Error("missing document ID")
	}
	if result.DocumentType != models.DocTypeBankStatement {
		t.Errorf("document type = %q, want %q", result.DocumentType, models.DocTypeBankStatement)
	}
	if len(result.Transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(result.Transactions))
	}
	if result.Summary.TotalTransactions != 3 {
		t.Errorf("summary total transactions = %d, want 3", result.Summary.TotalTransactions)
	}
	wantInsight := "Total of 3 transactions worth ₹69,549.50"
	if len(result.Summary.KeyInsights) != 1 || result.Summary.KeyInsights[0] != wantInsight {
		t.Errorf("key insights = %v, want [%q]", result.Summary.KeyInsights, wantInsight)
	}
	if result.Summary.DateRange.Start != "15/01/2024" || result.Summary.DateRange.End != "18/01/2024" {
		t.Errorf("date range = %+v", result.Summary.DateRange)
	}
	if len(result.Recommendations) != 2 || result.Recommendations[0] != "Review transactions for accuracy" {
		t.Errorf("recommendations = %v, want deterministic fallback", result.Recommendations)
	}
	if result.RiskScore < 0 || result.RiskScore > 10 {
		t.Errorf("risk score out of range: %f", result.RiskScore)
	}
	if stored, ok := store.results[result.DocumentID]; !ok || stored != result {
		t.Error("result not persisted to store")
	}
}

func TestAnalyzeDocumentCategorizesTransactions(t *testing.T) {
	svc := newTestService(newMockStore(), nil)
	path := writeStatementCSV(t)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}

	byDescription := make(map[string]string)
	for _, tx := range result.Transactions {
		byDescription[tx.Description] = tx.Category
	}
	if got := byDescription["SALARY CREDIT JAN"]; got != "Salary" {
		t.Errorf("salary category = %q", got)
	}
	if got := byDescription["ATM WITHDRAWAL MG ROAD"]; got != "Cash Withdrawal" {
		t.Errorf("ATM category = %q", got)
	}
	if got := byDescription["SWIGGY ORDER"]; got != "Dining" {
		t.Errorf("swiggy category = %q", got)
	}
}

func TestAnalyzeDocumentDeduplicatesByContent(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, nil)
	path := writeStatementCSV(t)

	first, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("first AnalyzeDocument: %v", err)
	}

	// Same bytes under a different filename must return the prior result.
	copyPath := filepath.Join(t.TempDir(), "copy.csv")
	data, _ := os.ReadFile(path)
	if err := os.WriteFile(copyPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := svc.AnalyzeDocument(context.Background(), "session-1", copyPath, "copy.csv")
	if err != nil {
		t.Fatalf("second AnalyzeDocument: %v", err)
	}
	if second.DocumentID != first.DocumentID {
		t.Errorf("dedup returned new document %s, want %s", second.DocumentID, first.DocumentID)
	}
	if len(store.results) != 1 {
		t.Errorf("store holds %d results, want 1", len(store.results))
	}

	// A different session analyzes the same content independently.
	third, err := svc.AnalyzeDocument(context.Background(), "session-2", path, "statement.csv")
	if err != nil {
		t.Fatalf("third AnalyzeDocument: %v", err)
	}
	if third.DocumentID == first.DocumentID {
		t.Error("content dedup leaked across sessions")
	}
}

func TestAnalyzeDocumentFailingAssistantDegrades(t *testing.T) {
	completer := &mockCompleter{err: llm.ErrUnavailable}
	svc := newTestService(newMockStore(), completer)
	path := writeStatementCSV(t)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if len(result.Transactions) != 3 {
		t.Errorf("transactions = %d, want 3 from rules despite assistant failure", len(result.Transactions))
	}
	if len(result.Recommendations) != 2 || result.Recommendations[1] != "Monitor account for unusual activity" {
		t.Errorf("recommendations = %v, want deterministic fallback", result.Recommendations)
	}
	if len(result.Summary.KeyInsights) == 0 {
		t.Error("basic summary missing despite assistant failure")
	}
}

func TestAnalyzeDocumentAssistantRecommendations(t *testing.T) {
	completer := &mockCompleter{responses: map[string]string{
		"recommendations": "- Set a withdrawal alert above ₹10,000\n- Reconcile salary credits monthly\n- Review dining spend",
		"summary":         `{"key_insights": ["Salary is the dominant inflow"]}`,
	}}
	svc := newTestService(newMockStore(), completer)
	path := writeStatementCSV(t)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if len(result.Recommendations) != 3 || result.Recommendations[0] != "Set a withdrawal alert above ₹10,000" {
		t.Errorf("recommendations = %v, want parsed assistant list", result.Recommendations)
	}
	if len(result.Summary.KeyInsights) != 1 || result.Summary.KeyInsights[0] != "Salary is the dominant inflow" {
		t.Errorf("key insights = %v, want assistant insight", result.Summary.KeyInsights)
	}
	// Deterministic totals are never overridden by the assistant.
	if result.Summary.TotalTransactions != 3 {
		t.Errorf("total transactions = %d, want 3", result.Summary.TotalTransactions)
	}
}

func TestAnalyzeDocumentAssistantTransactionFallback(t *testing.T) {
	// Free text the rule extractor finds nothing in.
	path := filepath.Join(t.TempDir(), "notes.csv")
	content := "Payment receipt notes\nReceived payment from client for consulting services rendered\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	completer := &mockCompleter{responses: map[string]string{
		"JSON array": `[{"date": "20/01/2024", "description": "Consulting fee", "amount": "₹1,20,000"}]`,
	}}
	svc := newTestService(newMockStore(), completer)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "notes.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1 from assistant fallback", len(result.Transactions))
	}
	if result.Transactions[0].Amount != 120000 {
		t.Errorf("amount = %f, want 120000", result.Transactions[0].Amount)
	}
}

func TestAnalyzeDocumentFraudDetectionDisabled(t *testing.T) {
	config.Cfg.FraudDetectionEnabled = false
	defer func() { config.Cfg.FraudDetectionEnabled = true }()

	svc := newTestService(newMockStore(), nil)
	path := writeStatementCSV(t)

	result, err := svc.AnalyzeDocument(context.Background(), "session-1", path, "statement.csv")
	if err != nil {
		t.Fatalf("AnalyzeDocument: %v", err)
	}
	if len(result.Anomalies) != 0 {
		t.Errorf("anomalies = %d, want 0 with detection disabled", len(result.Anomalies))
	}
}

func TestAnswerQuestionFallback(t *testing.T) {
	store := newMockStore()
	store.results["doc-1"] = &models.AnalysisResult{DocumentID: "doc-1", ProcessedAt: time.Now()}
	store.sessions["doc-1"] = "session-1"

	svc := newTestService(store, &mockCompleter{err: llm.ErrUnavailable})
	resp, err := svc.AnswerQuestion(context.Background(), "session-1", models.ChatQuery{
		DocumentID: "doc-1",
		Question:   "What is my biggest expense?",
	})
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if resp.Answer != chatFallbackAnswer {
		t.Errorf("answer = %q, want fallback apology", resp.Answer)
	}
	if store.conversations != 1 {
		t.Errorf("conversations recorded = %d, want 1", store.conversations)
	}
}

func TestAnswerQuestionSuccess(t *testing.T) {
	store := newMockStore()
	store.results["doc-1"] = &models.AnalysisResult{DocumentID: "doc-1", ProcessedAt: time.Now()}
	store.sessions["doc-1"] = "session-1"

	completer := &mockCompleter{responses: map[string]string{
		"What is my biggest expense?": "  Your biggest expense was the ATM withdrawal of ₹5,000.  ",
	}}
	svc := newTestService(store, completer)
	resp, err := svc.AnswerQuestion(context.Background(), "session-1", models.ChatQuery{
		DocumentID: "doc-1",
		Question:   "What is my biggest expense?",
	})
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if resp.Answer != "Your biggest expense was the ATM withdrawal of ₹5,000." {
		t.Errorf("answer = %q, want trimmed assistant response", resp.Answer)
	}
	if resp.DocumentID != "doc-1" {
		t.Errorf("document ID = %q", resp.DocumentID)
	}
}

func TestAnswerQuestionUnknownDocument(t *testing.T) {
	svc := newTestService(newMockStore(), nil)
	_, err := svc.AnswerQuestion(context.Background(), "session-1", models.ChatQuery{
		DocumentID: "missing",
		Question:   "Anything?",
	})
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "0.00"},
		{950.5, "950.50"},
		{69549.5, "69,549.50"},
		{1234567.891, "1,234,567.89"},
		{-5000, "-5,000.00"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.amount); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
