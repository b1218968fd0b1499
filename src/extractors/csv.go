// src/extractors/csv.go
package extractors

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/username/finsight/src/logger"
)

// ExtractCSV renders a CSV file as text: trimmed cell values comma-joined
// per row, one row per line.
func ExtractCSV(filePath string) Extraction {
	file, err := os.Open(filePath)
	if err != nil {
		logger.L.Warn("CSV extraction failed to open file", "path", filePath, "error", err)
		return Extraction{Text: SentinelCorruptFile, Method: "csv_failed"}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	records, err := reader.ReadAll()
	if err != nil {
		logger.L.Warn("CSV extraction failed to read records", "path", filePath, "error", err)
		return Extraction{Text: SentinelCorruptFile, Method: "csv_failed"}
	}

	var lines []string
	table := make([][]string, 0, len(records))
	for _, record := range records {
		cells := make([]string, len(record))
		for i, cell := range record {
			cells[i] = strings.TrimSpace(cell)
		}
		lines = append(lines, strings.Join(cells, ","))
		table = append(table, cells)
	}

	var tables [][][]string
	if len(table) > 0 {
		tables = [][][]string{table}
	}
	return Extraction{Text: strings.Join(lines, "\n"), Tables: tables, Method: "csv"}
}
