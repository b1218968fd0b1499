package validation

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/username/finsight/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true, // CSVs are often plain text
	"application/octet-stream": true, // Browsers fall back to this for .docx/.xlsx
}

var (
	pdfSignature = []byte("%PDF")
	zipSignature = []byte("PK\x03\x04")
)

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if normalized == "" {
		return nil
	}
	if !AllowedClientContentTypes[normalized] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for document upload", contentType)
	}
	return nil
}

// isBinaryContent checks if a buffer contains binary control characters (like null bytes)
// which indicate the file is likely not a valid text-based CSV.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if !utf8.Valid(buf) {
		return true
	}
	return false
}

// ValidateFileContentByMagicBytes checks the actual file content signature against
// the signature expected for the file's extension. PDF files must start with
// "%PDF"; DOCX and XLSX are ZIP containers and must start with "PK\x03\x04";
// CSV must be plain text.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, filename string) error {
	if file == nil {
		return fmt.Errorf("file is nil")
	}

	// Read first 1024 bytes (1KB) for detection
	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the actual parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return fmt.Errorf("file is empty")
	}
	head := buffer[:n]

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if !bytes.HasPrefix(head, pdfSignature) {
			logger.L.Warn("File rejected: missing PDF signature", "filename", filename)
			return fmt.Errorf("file content does not match a PDF document")
		}
	case ".docx", ".xlsx":
		if !bytes.HasPrefix(head, zipSignature) {
			logger.L.Warn("File rejected: missing ZIP container signature", "filename", filename)
			return fmt.Errorf("file content does not match an Office document")
		}
	case ".csv":
		if isBinaryContent(head) {
			logger.L.Warn("File rejected: binary content detected in CSV upload", "filename", filename)
			return fmt.Errorf("file appears to be binary, not text/CSV")
		}
	default:
		logger.L.Warn("Disallowed file extension", "filename", filename)
		return fmt.Errorf("file type '%s' is not supported", filepath.Ext(filename))
	}

	logger.L.Debug("File content signature validated", "filename", filename)
	return nil
}
