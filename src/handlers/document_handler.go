// src/handlers/document_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/security/validation"
	"github.com/username/finsight/src/services"
)

type DocumentHandler struct {
	analysisService services.AnalysisService
}

func NewDocumentHandler(service services.AnalysisService) *DocumentHandler {
	return &DocumentHandler{
		analysisService: service,
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func sendJSON(w http.ResponseWriter, payload any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

// HandleUpload accepts one multipart file under the "file" field, validates
// it, runs the analysis pipeline, and returns the full analysis result.
func (h *DocumentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "session ID not found in context", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		sendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		sendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		sendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	filename := fileHeader.Filename
	if err := validation.ValidateFilename(filename); err != nil {
		ctxLogger.Warn("Invalid filename", "filename", filename, "error", err)
		sendJSONError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateFileContentByMagicBytes(file, filename); err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filePath, err := saveUpload(file, filename)
	if err != nil {
		ctxLogger.Error("Failed to persist uploaded file", "filename", filename, "error", err)
		sendJSONError(w, "Failed to store uploaded file", http.StatusInternalServerError)
		return
	}
	defer os.Remove(filePath)

	ctxLogger.Info("Processing upload request", "filename", filename, "size", fileHeader.Size)

	result, err := h.analysisService.AnalyzeDocument(r.Context(), sessionID, filePath, filename)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedFileType):
			sendJSONError(w, "Unsupported file type. Allowed: PDF, DOCX, CSV, XLSX.", http.StatusUnsupportedMediaType)
		case errors.Is(err, services.ErrEmptyDocument):
			sendJSONError(w, "No readable content could be extracted from the document.", http.StatusUnprocessableEntity)
		default:
			ctxLogger.Error("Document analysis failed", "filename", filename, "error", err)
			sendJSONError(w, "Document analysis failed", http.StatusInternalServerError)
		}
		return
	}

	sendJSON(w, result, http.StatusOK)
}

// HandleListDocuments returns the session's analyzed documents, newest first.
func (h *DocumentHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "session ID not found in context", http.StatusInternalServerError)
		return
	}

	listings, err := h.analysisService.ListDocuments(r.Context(), sessionID)
	if err != nil {
		ctxLogger.Error("Failed to list documents", "error", err)
		sendJSONError(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}

	sendJSON(w, map[string]any{"documents": listings}, http.StatusOK)
}

// HandleGetDocument returns one full analysis result by document ID.
func (h *DocumentHandler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "session ID not found in context", http.StatusInternalServerError)
		return
	}

	documentID := chi.URLParam(r, "documentID")
	if err := validation.ValidateDocumentID(documentID); err != nil {
		sendJSONError(w, "Invalid document ID", http.StatusBadRequest)
		return
	}

	result, err := h.analysisService.GetAnalysis(r.Context(), sessionID, documentID)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			sendJSONError(w, "Document not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Failed to retrieve document", "documentID", documentID, "error", err)
		sendJSONError(w, "Failed to retrieve document", http.StatusInternalServerError)
		return
	}

	sendJSON(w, result, http.StatusOK)
}

// HandleChat answers a question about a previously analyzed document.
func (h *DocumentHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "session ID not found in context", http.StatusInternalServerError)
		return
	}

	var query models.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateDocumentID(query.DocumentID); err != nil {
		sendJSONError(w, "Invalid document ID", http.StatusBadRequest)
		return
	}
	query.Question = strings.TrimSpace(query.Question)
	if err := validation.ValidateQuestion(query.Question); err != nil {
		sendJSONError(w, "Question is required and must be under 2000 characters", http.StatusBadRequest)
		return
	}
	if err := validation.CheckXSSPatterns(query.Question, "question", query.DocumentID); err != nil {
		sendJSONError(w, "Question contains disallowed content", http.StatusBadRequest)
		return
	}
	query.Question = validation.SanitizeText(query.Question)

	response, err := h.analysisService.AnswerQuestion(r.Context(), sessionID, query)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			sendJSONError(w, "Document not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Chat query failed", "documentID", query.DocumentID, "error", err)
		sendJSONError(w, "Failed to answer question", http.StatusInternalServerError)
		return
	}
	response.Answer = validation.SanitizeText(response.Answer)

	sendJSON(w, response, http.StatusOK)
}

// HandleHealth reports service liveness.
func (h *DocumentHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// HandleNotFound returns a JSON 404 for unknown API routes.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	sendJSONError(w, "Not found", http.StatusNotFound)
}

// saveUpload copies the multipart file into the upload directory under a
// random name, preserving the extension so the extractor can dispatch on it.
func saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(config.Cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	filePath := filepath.Join(config.Cfg.UploadDir, uuid.New().String()+ext)

	out, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("error creating upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("error writing upload file: %w", err)
	}
	return filePath, nil
}
