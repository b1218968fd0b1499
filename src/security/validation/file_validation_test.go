// src/security/validation/file_validation_test.go
package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/username/finsight/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

func TestValidateClientContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{"application/pdf", false},
		{"text/csv", false},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", false},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
		{"text/csv; charset=utf-8", false},
		{"", false}, // absent header is tolerated; magic bytes decide
		{"application/x-msdownload", true},
		{"image/png", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			err := ValidateClientContentType(tt.contentType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClientContentType(%q) err = %v, wantErr %v", tt.contentType, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantErr  bool
	}{
		{"valid pdf", "statement.pdf", "%PDF-1.7 rest of file", false},
		{"fake pdf", "statement.pdf", "not a pdf at all", true},
		{"valid docx container", "contract.docx", "PK\x03\x04rest of zip", false},
		{"fake docx", "contract.docx", "plain text pretending", true},
		{"valid xlsx container", "sheet.xlsx", "PK\x03\x04rest of zip", false},
		{"valid csv", "data.csv", "date,description,amount\n15/01/2024,COFFEE,-50", false},
		{"binary csv", "data.csv", "head\x00tail", true},
		{"unsupported extension", "script.exe", "MZ binary", true},
		{"empty file", "statement.pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileContentByMagicBytes(strings.NewReader(tt.content), tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileContentByMagicBytes(%s) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileContentResetsReader(t *testing.T) {
	reader := bytes.NewReader([]byte("%PDF-1.7 body"))
	if err := ValidateFileContentByMagicBytes(reader, "doc.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := reader.Read(buf); err != nil {
		t.Fatalf("read after validation: %v", err)
	}
	if string(buf) != "%PDF" {
		t.Errorf("reader was not reset: got %q", buf)
	}
}
