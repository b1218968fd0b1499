// src/extractors/docx.go
package extractors

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/username/finsight/src/logger"
)

// ExtractDOCX joins the paragraphs of a .docx document with newlines.
func ExtractDOCX(filePath string) Extraction {
	text, err := readDOCXParagraphs(filePath)
	if err != nil {
		logger.L.Warn("DOCX extraction failed", "path", filePath, "error", err)
		return Extraction{Text: SentinelCorruptFile, Method: "docx_failed"}
	}
	return Extraction{Text: text, Method: "docx"}
}

// readDOCXParagraphs opens the OOXML zip container and walks
// word/document.xml, collecting run text (<w:t>) per paragraph (<w:p>).
func readDOCXParagraphs(filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("opening docx container: %w", err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("docx container has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding document.xml: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}
