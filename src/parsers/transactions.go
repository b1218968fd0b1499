// src/parsers/transactions.go
package parsers

import (
	"regexp"
	"strings"

	"github.com/username/finsight/src/models"
)

// Date tokens recognized in raw statement text.
var (
	// DD/MM/YYYY or DD-MM-YYYY (2- or 4-digit year)
	textDateNumericRe = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	// DD-Mon-YYYY (e.g. 15-Jan-2024)
	textDateMonthRe = regexp.MustCompile(`(?i)\d{1,2}-(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*-\d{2,4}`)

	signedAmountRe = regexp.MustCompile(`^[+-]?\d[\d,]*\.?\d*`)
)

// ExtractTransactions converts extracted tables and raw text into structured
// transactions. The two sources are independent and their results are
// concatenated; duplicates are left for the anomaly detector to judge.
func ExtractTransactions(text string, tables [][][]string) []models.Transaction {
	var transactions []models.Transaction
	transactions = append(transactions, extractFromTables(tables)...)
	transactions = append(transactions, extractFromText(text)...)
	return transactions
}

// columnIndexes holds the detected header column positions of one table.
// -1 means the column is absent.
type columnIndexes struct {
	date, desc, amount, balance int
}

func (c columnIndexes) usable() bool {
	return c.date >= 0 || c.desc >= 0 || c.amount >= 0
}

func (c columnIndexes) max() int {
	m := c.date
	for _, i := range []int{c.desc, c.amount, c.balance} {
		if i > m {
			m = i
		}
	}
	return m
}

func detectColumns(header []string) columnIndexes {
	cols := columnIndexes{date: -1, desc: -1, amount: -1, balance: -1}
	for i, cell := range header {
		lower := strings.ToLower(cell)
		switch {
		case cols.date < 0 && strings.Contains(lower, "date"):
			cols.date = i
		case cols.desc < 0 && (strings.Contains(lower, "description") || strings.Contains(lower, "particulars")):
			cols.desc = i
		case cols.amount < 0 && strings.Contains(lower, "amount"):
			cols.amount = i
		case cols.balance < 0 && strings.Contains(lower, "balance"):
			cols.balance = i
		}
	}
	return cols
}

// extractFromTables pulls transactions out of header-detected table columns.
// Tables without a recognizable date/amount/description column are skipped,
// as are rows too short to reach the highest detected column.
func extractFromTables(tables [][][]string) []models.Transaction {
	var transactions []models.Transaction

	for _, table := range tables {
		if len(table) < 2 { // need header plus at least one row
			continue
		}
		cols := detectColumns(table[0])
		if !cols.usable() {
			continue
		}

		for _, row := range table[1:] {
			if len(row) <= cols.max() {
				continue
			}
			tx := models.Transaction{}
			if cols.date >= 0 {
				tx.Date = strings.TrimSpace(row[cols.date])
			}
			if cols.desc >= 0 {
				tx.Description = strings.TrimSpace(row[cols.desc])
			}
			if cols.amount >= 0 {
				tx.Amount = ParseAmount(row[cols.amount])
			}
			if cols.balance >= 0 && strings.TrimSpace(row[cols.balance]) != "" {
				balance := ParseAmount(row[cols.balance])
				tx.Balance = &balance
			}
			transactions = append(transactions, tx)
		}
	}
	return transactions
}

// extractFromText matches `<date> <signed-amount> <description>` runs in raw
// text. A description ends at the next date token on the line or at EOL.
// Text matches never carry a balance.
func extractFromText(text string) []models.Transaction {
	var transactions []models.Transaction
	for _, line := range strings.Split(text, "\n") {
		transactions = append(transactions, extractFromLine(line, textDateNumericRe)...)
		transactions = append(transactions, extractFromLine(line, textDateMonthRe)...)
	}
	return transactions
}

func extractFromLine(line string, dateRe *regexp.Regexp) []models.Transaction {
	locs := dateRe.FindAllStringIndex(line, -1)
	if locs == nil {
		return nil
	}

	var transactions []models.Transaction
	for i, loc := range locs {
		segmentEnd := len(line)
		if i+1 < len(locs) {
			segmentEnd = locs[i+1][0]
		}
		date := line[loc[0]:loc[1]]
		rest := strings.TrimSpace(line[loc[1]:segmentEnd])

		amountStr := signedAmountRe.FindString(rest)
		if amountStr == "" {
			continue
		}
		description := strings.TrimSpace(rest[len(amountStr):])
		if description == "" {
			continue
		}

		transactions = append(transactions, models.Transaction{
			Date:        date,
			Description: description,
			Amount:      ParseAmount(amountStr),
		})
	}
	return transactions
}
