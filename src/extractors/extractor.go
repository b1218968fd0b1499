// src/extractors/extractor.go
package extractors

import (
	"path/filepath"
	"strings"

	"github.com/username/finsight/src/logger"
)

// SentinelCorruptFile is returned as the extracted text when a backend fails
// internally. Downstream stages detect "no usable content" by checking for
// blank or sentinel text instead of handling errors.
const SentinelCorruptFile = "could not extract text - file may be corrupted or password-protected"

// Extraction is the raw output of one extraction backend. Tables are
// source-ordered lists of rows of cell strings, populated by the tabular
// backends (PDF layout reconstruction, CSV, XLSX).
type Extraction struct {
	Text   string
	Tables [][][]string
	Method string
}

// Empty reports whether the extraction produced no usable content.
func (e Extraction) Empty() bool {
	text := strings.TrimSpace(e.Text)
	return text == "" || text == SentinelCorruptFile
}

// Extract dispatches to the backend for the file's extension. An
// unrecognized extension yields empty text; rejecting it is the caller's
// concern, not the extractor's.
func Extract(filePath, filename string) Extraction {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ExtractPDF(filePath)
	case ".docx":
		return ExtractDOCX(filePath)
	case ".csv":
		return ExtractCSV(filePath)
	case ".xlsx":
		return ExtractXLSX(filePath)
	}
	logger.L.Warn("No extraction backend for file", "filename", filename)
	return Extraction{Method: "none"}
}
