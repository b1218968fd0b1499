// src/services/analysis_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/detector"
	"github.com/username/finsight/src/extractors"
	"github.com/username/finsight/src/llm"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/parsers"
	"github.com/username/finsight/src/processors"
	"github.com/username/finsight/src/risk"
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".csv":  true,
	".xlsx": true,
}

// fallbackRecommendations is the deterministic output when the assistant
// cannot produce recommendations.
var fallbackRecommendations = []string{
	"Review transactions for accuracy",
	"Monitor account for unusual activity",
}

const chatFallbackAnswer = "I apologize, but I encountered an error processing your question. Please try again."

type analysisServiceImpl struct {
	store             DocumentStore
	completer         llm.Completer
	detector          *detector.Detector
	categoryProcessor processors.CategoryProcessor
}

func NewAnalysisService(store DocumentStore, completer llm.Completer, det *detector.Detector, categoryProcessor processors.CategoryProcessor) AnalysisService {
	return &analysisServiceImpl{
		store:             store,
		completer:         completer,
		detector:          det,
		categoryProcessor: categoryProcessor,
	}
}

// analysisState carries intermediate artifacts between pipeline stages.
// Every stage leaves the state usable for the next one, failures included.
type analysisState struct {
	documentID   string
	filename     string
	filePath     string
	extraction   extractors.Extraction
	documentType models.DocumentType
	transactions []models.Transaction
	summary      models.Summary
	anomalies    []models.Anomaly
	riskScore    float64
	recs         []string
}

// AnalyzeDocument runs the six-stage pipeline: parse, extract transactions,
// summarize, detect anomalies, score risk, recommend. Stages degrade to
// deterministic defaults instead of aborting, so a result is always produced
// for a supported, readable file.
func (s *analysisServiceImpl) AnalyzeDocument(ctx context.Context, sessionID, filePath, filename string) (*models.AnalysisResult, error) {
	overallStartTime := time.Now()
	log := logger.FromContext(ctx)
	log.Info("AnalyzeDocument START", "sessionID", sessionID, "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	contentHash, err := hashFileContent(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if existing, err := s.store.FindByContentHash(ctx, sessionID, contentHash); err == nil {
		log.Info("Returning prior analysis for identical content", "documentID", existing.DocumentID)
		return existing, nil
	} else if !errors.Is(err, ErrDocumentNotFound) {
		return nil, err
	}

	state := &analysisState{
		documentID:   uuid.New().String(),
		filename:     filename,
		filePath:     filePath,
		documentType: models.DocTypeOther,
	}

	s.parseDocument(ctx, state)
	if state.extraction.Empty() {
		return nil, ErrEmptyDocument
	}
	s.extractTransactions(ctx, state)
	s.generateSummary(ctx, state)
	s.detectAnomalies(ctx, state)
	s.calculateRisk(ctx, state)
	s.generateRecommendations(ctx, state)

	result := &models.AnalysisResult{
		DocumentID:      state.documentID,
		Filename:        state.filename,
		DocumentType:    state.documentType,
		ProcessedAt:     time.Now().UTC(),
		Summary:         state.summary,
		Transactions:    state.transactions,
		Anomalies:       state.anomalies,
		RiskScore:       state.riskScore,
		Recommendations: state.recs,
		ExtractableData: map[string]any{
			"method":      state.extraction.Method,
			"text_length": len(state.extraction.Text),
			"table_count": len(state.extraction.Tables),
		},
	}

	if err := s.store.SaveResult(ctx, sessionID, contentHash, result); err != nil {
		return nil, err
	}

	log.Info("AnalyzeDocument END",
		"documentID", state.documentID,
		"documentType", state.documentType,
		"transactions", len(state.transactions),
		"anomalies", len(state.anomalies),
		"riskScore", state.riskScore,
		"duration", time.Since(overallStartTime),
	)
	return result, nil
}

func (s *analysisServiceImpl) GetAnalysis(ctx context.Context, sessionID, documentID string) (*models.AnalysisResult, error) {
	return s.store.GetResult(ctx, sessionID, documentID)
}

func (s *analysisServiceImpl) ListDocuments(ctx context.Context, sessionID string) ([]models.DocumentListing, error) {
	return s.store.ListResults(ctx, sessionID)
}

// AnswerQuestion answers a chat question against a stored analysis. An
// unreachable assistant yields an apology answer, never an error, so long as
// the document exists.
func (s *analysisServiceImpl) AnswerQuestion(ctx context.Context, sessionID string, query models.ChatQuery) (*models.ChatResponse, error) {
	log := logger.FromContext(ctx)

	result, err := s.store.GetResult(ctx, sessionID, query.DocumentID)
	if err != nil {
		return nil, err
	}

	answer := chatFallbackAnswer
	if s.completer != nil {
		prompt := llm.BuildChatPrompt(result, query.Question)
		response, err := s.completer.Complete(ctx, prompt)
		if err != nil {
			log.Error("Chat completion failed", "documentID", query.DocumentID, "error", err)
		} else {
			answer = strings.TrimSpace(response)
		}
	}

	if err := s.store.SaveConversation(ctx, sessionID, query.DocumentID, query.Question, answer); err != nil {
		log.Error("Failed to record conversation", "documentID", query.DocumentID, "error", err)
	}

	return &models.ChatResponse{Answer: answer, DocumentID: query.DocumentID}, nil
}

// Stage 1: extract raw text/tables and classify the document.
func (s *analysisServiceImpl) parseDocument(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Parsing document", "filename", state.filename)

	state.extraction = extractors.Extract(state.filePath, state.filename)
	state.documentType = parsers.ClassifyDocument(state.extraction.Text, state.filename)
}

// Stage 2: rule-based transaction extraction, with an assistant fallback when
// rules find nothing in non-empty text.
func (s *analysisServiceImpl) extractTransactions(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Extracting transactions")

	state.transactions = parsers.ExtractTransactions(state.extraction.Text, state.extraction.Tables)

	if len(state.transactions) == 0 && strings.TrimSpace(state.extraction.Text) != "" && s.completer != nil {
		prompt := llm.BuildTransactionExtractionPrompt(state.extraction.Text)
		response, err := s.completer.Complete(ctx, prompt)
		if err != nil {
			log.Warn("Assistant transaction extraction failed", "error", err)
			return
		}
		state.transactions = llm.ParseTransactionsJSON(response)
		log.Info("Assistant extracted transactions", "count", len(state.transactions))
	}

	if s.categoryProcessor != nil {
		state.transactions = s.categoryProcessor.Process(state.transactions)
	}
}

// Stage 3: compute the deterministic summary, then let the assistant enrich
// the insight text when available.
func (s *analysisServiceImpl) generateSummary(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Generating summary")

	state.summary = buildBasicSummary(state.transactions)

	if s.completer == nil {
		return
	}
	prompt := llm.BuildSummaryPrompt(state.documentType, state.extraction.Text, state.transactions)
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		log.Warn("Summary generation failed, using basic summary", "error", err)
		return
	}
	if !llm.ParseSummaryResponse(response, &state.summary) {
		log.Warn("Could not parse summary response, using basic summary")
	}
}

// Stage 4: heuristic anomaly passes. A failing detector yields no findings.
func (s *analysisServiceImpl) detectAnomalies(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Detecting anomalies")

	if !config.Cfg.FraudDetectionEnabled {
		log.Info("Fraud detection disabled by configuration")
		return
	}
	state.anomalies = s.detector.Detect(state.transactions, state.documentType, state.extraction.Text)
}

// Stage 5: weighted 0-10 risk score.
func (s *analysisServiceImpl) calculateRisk(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Calculating risk score")

	state.riskScore = risk.Score(state.transactions, state.anomalies, state.documentType)
}

// Stage 6: assistant recommendations with a deterministic fallback.
func (s *analysisServiceImpl) generateRecommendations(ctx context.Context, state *analysisState) {
	log := logger.FromContext(ctx)
	log.Info("Generating recommendations")

	state.recs = fallbackRecommendations
	if s.completer == nil {
		return
	}

	partial := &models.AnalysisResult{
		DocumentID:   state.documentID,
		Filename:     state.filename,
		DocumentType: state.documentType,
		Summary:      state.summary,
		Transactions: state.transactions,
		Anomalies:    state.anomalies,
		RiskScore:    state.riskScore,
	}
	prompt := llm.BuildRecommendationsPrompt(partial)
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		log.Warn("Recommendation generation failed, using fallback", "error", err)
		return
	}
	if recs := llm.ParseRecommendations(response); len(recs) > 0 {
		state.recs = recs
	}
}

// buildBasicSummary computes the deterministic summary: totals, raw-string
// date range, per-category totals, and last known balance per account.
func buildBasicSummary(transactions []models.Transaction) models.Summary {
	summary := models.Summary{
		TotalTransactions: len(transactions),
		TopCategories:     []models.CategoryTotal{},
		AccountBalances:   []models.AccountBalance{},
	}

	categoryTotals := make(map[string]*models.CategoryTotal)
	lastBalances := make(map[string]float64)
	var accountOrder []string

	for _, tx := range transactions {
		summary.TotalAmount += tx.Amount

		if tx.Date != "" {
			if summary.DateRange.Start == "" || tx.Date < summary.DateRange.Start {
				summary.DateRange.Start = tx.Date
			}
			if summary.DateRange.End == "" || tx.Date > summary.DateRange.End {
				summary.DateRange.End = tx.Date
			}
		}

		if tx.Category != "" {
			entry, ok := categoryTotals[tx.Category]
			if !ok {
				entry = &models.CategoryTotal{Category: tx.Category}
				categoryTotals[tx.Category] = entry
			}
			entry.Total += tx.Amount
			entry.Count++
		}

		if tx.Account != "" && tx.Balance != nil {
			if _, seen := lastBalances[tx.Account]; !seen {
				accountOrder = append(accountOrder, tx.Account)
			}
			lastBalances[tx.Account] = *tx.Balance
		}
	}

	for _, entry := range categoryTotals {
		summary.TopCategories = append(summary.TopCategories, *entry)
	}
	sort.Slice(summary.TopCategories, func(i, j int) bool {
		a, b := summary.TopCategories[i], summary.TopCategories[j]
		if a.Total != b.Total {
			return abs(a.Total) > abs(b.Total)
		}
		return a.Category < b.Category
	})
	if len(summary.TopCategories) > 5 {
		summary.TopCategories = summary.TopCategories[:5]
	}

	for _, account := range accountOrder {
		summary.AccountBalances = append(summary.AccountBalances, models.AccountBalance{
			Account: account,
			Balance: lastBalances[account],
		})
	}

	summary.KeyInsights = []string{
		fmt.Sprintf("Total of %d transactions worth ₹%s", len(transactions), formatAmount(summary.TotalAmount)),
	}
	return summary
}

// formatAmount renders an amount with thousands separators and two decimals.
func formatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return sign + b.String() + "." + fracPart
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func hashFileContent(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening file for hashing: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("error hashing file content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
