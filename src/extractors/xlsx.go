// src/extractors/xlsx.go
package extractors

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/finsight/src/logger"
)

// ExtractXLSX renders every worksheet of an .xlsx workbook as text, one
// comma-joined row per line, and keeps each sheet as a table for structured
// extraction. Missing cells become empty strings.
func ExtractXLSX(filePath string) Extraction {
	workbook, err := excelize.OpenFile(filePath)
	if err != nil {
		logger.L.Warn("XLSX extraction failed to open workbook", "path", filePath, "error", err)
		return Extraction{Text: SentinelCorruptFile, Method: "xlsx_failed"}
	}
	defer workbook.Close()

	var lines []string
	var tables [][][]string
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			logger.L.Warn("XLSX extraction failed to read sheet", "path", filePath, "sheet", sheet, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		// GetRows drops trailing blank cells, so rows with an empty last
		// column come back shorter than the header. Pad every row to the
		// sheet's widest row so column positions stay aligned.
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		table := make([][]string, len(rows))
		for i, row := range rows {
			padded := make([]string, width)
			copy(padded, row)
			table[i] = padded
			lines = append(lines, strings.Join(padded, ","))
		}
		tables = append(tables, table)
	}
	return Extraction{Text: strings.Join(lines, "\n"), Tables: tables, Method: "xlsx"}
}
