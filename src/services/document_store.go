// src/services/document_store.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/database"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
)

const (
	ckAnalysisResult = "res_analysis_session_%s_doc_%s"
	ckDocumentList   = "res_document_list_session_%s"
)

type sqliteDocumentStore struct {
	resultCache *cache.Cache
}

// NewDocumentStore returns a DocumentStore backed by the shared SQLite
// connection with a read-through cache in front of it.
func NewDocumentStore(resultCache *cache.Cache) DocumentStore {
	return &sqliteDocumentStore{resultCache: resultCache}
}

func (s *sqliteDocumentStore) SaveResult(ctx context.Context, sessionID, contentHash string, result *models.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("error marshaling analysis result: %w", err)
	}

	_, err = database.DB.ExecContext(ctx, `
		INSERT INTO documents
			(id, session_id, filename, content_hash, document_type, risk_score,
			transaction_count, anomaly_count, result_json, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.DocumentID, sessionID, result.Filename, contentHash, string(result.DocumentType),
		result.RiskScore, len(result.Transactions), len(result.Anomalies),
		string(resultJSON), result.ProcessedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			logger.L.Debug("Skipping duplicate document on save", "sessionID", sessionID, "contentHash", contentHash)
			return nil
		}
		return fmt.Errorf("error inserting document (ID: %s): %w", result.DocumentID, err)
	}

	s.invalidateSessionCache(sessionID)
	return nil
}

func (s *sqliteDocumentStore) FindByContentHash(ctx context.Context, sessionID, contentHash string) (*models.AnalysisResult, error) {
	var resultJSON string
	err := database.DB.QueryRowContext(ctx,
		"SELECT result_json FROM documents WHERE session_id = ? AND content_hash = ?",
		sessionID, contentHash,
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying document by content hash: %w", err)
	}
	return unmarshalResult(resultJSON)
}

func (s *sqliteDocumentStore) GetResult(ctx context.Context, sessionID, documentID string) (*models.AnalysisResult, error) {
	cacheKey := fmt.Sprintf(ckAnalysisResult, sessionID, documentID)
	if cached, found := s.resultCache.Get(cacheKey); found {
		return cached.(*models.AnalysisResult), nil
	}

	var resultJSON string
	err := database.DB.QueryRowContext(ctx,
		"SELECT result_json FROM documents WHERE session_id = ? AND id = ?",
		sessionID, documentID,
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying document %s: %w", documentID, err)
	}

	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(cacheKey, result, config.Cfg.CacheExpiration)
	return result, nil
}

func (s *sqliteDocumentStore) ListResults(ctx context.Context, sessionID string) ([]models.DocumentListing, error) {
	cacheKey := fmt.Sprintf(ckDocumentList, sessionID)
	if cached, found := s.resultCache.Get(cacheKey); found {
		return cached.([]models.DocumentListing), nil
	}

	rows, err := database.DB.QueryContext(ctx, `
		SELECT id, filename, document_type, risk_score, transaction_count, anomaly_count, processed_at
		FROM documents
		WHERE session_id = ?
		ORDER BY processed_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying documents for session: %w", err)
	}
	defer rows.Close()

	listings := []models.DocumentListing{}
	for rows.Next() {
		var l models.DocumentListing
		var docType string
		if err := rows.Scan(&l.DocumentID, &l.Filename, &docType, &l.RiskScore,
			&l.TransactionCount, &l.AnomalyCount, &l.ProcessedAt); err != nil {
			return nil, fmt.Errorf("error scanning document row: %w", err)
		}
		l.DocumentType = models.DocumentType(docType)
		listings = append(listings, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over document rows: %w", err)
	}

	s.resultCache.Set(cacheKey, listings, config.Cfg.CacheExpiration)
	return listings, nil
}

func (s *sqliteDocumentStore) SaveConversation(ctx context.Context, sessionID, documentID, question, answer string) error {
	_, err := database.DB.ExecContext(ctx, `
		INSERT INTO conversations (session_id, document_id, question, answer)
		VALUES (?, ?, ?, ?)`,
		sessionID, documentID, question, answer,
	)
	if err != nil {
		return fmt.Errorf("error recording conversation for document %s: %w", documentID, err)
	}
	return nil
}

func (s *sqliteDocumentStore) invalidateSessionCache(sessionID string) {
	s.resultCache.Delete(fmt.Sprintf(ckDocumentList, sessionID))
}

func unmarshalResult(resultJSON string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling stored analysis result: %w", err)
	}
	return &result, nil
}
