// src/services/interfaces.go
package services

import (
	"context"
	"errors"

	"github.com/username/finsight/src/models"
)

// Define common service errors
var (
	ErrParsingFailed       = errors.New("document parsing failed")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document contains no extractable content")
	ErrDocumentNotFound    = errors.New("document not found")
)

// AnalysisService defines the interface for the core document analysis logic.
type AnalysisService interface {
	// AnalyzeDocument runs the full pipeline over an uploaded file and
	// persists the result under the given session.
	AnalyzeDocument(ctx context.Context, sessionID, filePath, filename string) (*models.AnalysisResult, error)
	GetAnalysis(ctx context.Context, sessionID, documentID string) (*models.AnalysisResult, error)
	ListDocuments(ctx context.Context, sessionID string) ([]models.DocumentListing, error)
	AnswerQuestion(ctx context.Context, sessionID string, query models.ChatQuery) (*models.ChatResponse, error)
}

// DocumentStore persists analysis results and chat history per session.
type DocumentStore interface {
	SaveResult(ctx context.Context, sessionID, contentHash string, result *models.AnalysisResult) error
	// FindByContentHash returns the prior result for identical content in the
	// same session, or ErrDocumentNotFound.
	FindByContentHash(ctx context.Context, sessionID, contentHash string) (*models.AnalysisResult, error)
	GetResult(ctx context.Context, sessionID, documentID string) (*models.AnalysisResult, error)
	ListResults(ctx context.Context, sessionID string) ([]models.DocumentListing, error)
	SaveConversation(ctx context.Context, sessionID, documentID, question, answer string) error
}
