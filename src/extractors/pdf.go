// src/extractors/pdf.go
package extractors

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/username/finsight/src/logger"
)

// The two PDF extraction passes, swappable so the fallback ordering can be
// exercised without crafting PDF fixtures.
var (
	pdfRowExtraction       = extractPDFByRows
	pdfPlainTextExtraction = extractPDFPlainText
)

// ExtractPDF extracts text and tables from a PDF. The layout-aware row
// extractor runs first and also collects tables; if it yields no
// non-whitespace text, the simpler whole-document extractor runs instead.
func ExtractPDF(filePath string) Extraction {
	text, tables, err := pdfRowExtraction(filePath)
	if err != nil {
		logger.L.Warn("Layout-aware PDF extraction failed, falling back", "path", filePath, "error", err)
	}
	if strings.TrimSpace(text) != "" {
		return Extraction{Text: text, Tables: tables, Method: "pdf_layout"}
	}

	text, err = pdfPlainTextExtraction(filePath)
	if err != nil {
		logger.L.Warn("Fallback PDF extraction failed", "path", filePath, "error", err)
		return Extraction{Text: SentinelCorruptFile, Method: "pdf_failed"}
	}
	return Extraction{Text: text, Method: "pdf_plaintext"}
}

// extractPDFByRows walks every page row by row, joining words into lines.
// Rows whose words fall into two or more X-gap-separated cells are treated
// as table rows; consecutive multi-cell rows on a page form one table, kept
// only when it has at least two rows.
func extractPDFByRows(filePath string) (text string, tables [][][]string, err error) {
	defer func() {
		// The pdf library panics on some malformed files.
		if r := recover(); r != nil {
			text = ""
			tables = nil
			err = &pdfPanicError{value: r}
		}
	}()

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			continue
		}

		var currentTable [][]string
		for _, row := range rows {
			cells := rowCells(row)
			line := strings.TrimSpace(strings.Join(cells, " "))
			if line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}

			if len(cells) >= 2 {
				currentTable = append(currentTable, cells)
				continue
			}
			if len(currentTable) >= 2 {
				tables = append(tables, currentTable)
			}
			currentTable = nil
		}
		if len(currentTable) >= 2 {
			tables = append(tables, currentTable)
		}
	}
	return sb.String(), tables, nil
}

// cellGap is the X distance between consecutive words that marks a column
// boundary when reconstructing table cells from positioned text.
const cellGap = 15.0

// rowCells groups one row's words into cells, splitting where the horizontal
// gap between words exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var cells []string
	var current []string
	var prevEnd float64

	for i, word := range row.Content {
		if i > 0 && word.X-prevEnd > cellGap && len(current) > 0 {
			cells = append(cells, strings.TrimSpace(strings.Join(current, " ")))
			current = current[:0]
		}
		current = append(current, word.S)
		prevEnd = word.X + word.W
	}
	if len(current) > 0 {
		cells = append(cells, strings.TrimSpace(strings.Join(current, " ")))
	}
	return cells
}

// extractPDFPlainText is the second-chance extractor: the library's
// whole-document plain text stream, with no layout reconstruction.
func extractPDFPlainText(filePath string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &pdfPanicError{value: r}
		}
	}()

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stream, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type pdfPanicError struct {
	value any
}

func (e *pdfPanicError) Error() string {
	return "pdf library panic during extraction"
}
