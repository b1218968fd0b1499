// src/processors/interfaces.go
package processors

import "github.com/username/finsight/src/models"

// CategoryProcessor enriches extracted transactions with data that is not
// source-specific.
type CategoryProcessor interface {
	Process(transactions []models.Transaction) []models.Transaction
}
