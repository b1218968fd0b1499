// src/processors/category_processor.go
package processors

import (
	"strings"

	"github.com/username/finsight/src/models"
)

// categoryRules maps description keywords to a spending category. First match
// wins, so more specific terms come before generic ones.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"Cash Withdrawal", []string{"atm", "cash withdrawal", "cash wdl"}},
	{"Salary", []string{"salary", "payroll", "wages"}},
	{"Rent", []string{"rent", "lease payment"}},
	{"Loan & EMI", []string{"emi", "loan", "mortgage", "instalment", "installment"}},
	{"Insurance", []string{"insurance", "premium", "lic "}},
	{"Utilities", []string{"electricity", "water bill", "gas bill", "broadband", "mobile recharge", "phone bill", "internet"}},
	{"Groceries", []string{"grocery", "supermarket", "mart", "bazaar", "kirana"}},
	{"Dining", []string{"restaurant", "cafe", "coffee", "food", "swiggy", "zomato", "dining"}},
	{"Fuel", []string{"fuel", "petrol", "diesel", "gas station"}},
	{"Shopping", []string{"amazon", "flipkart", "myntra", "shopping", "store"}},
	{"Entertainment", []string{"netflix", "spotify", "cinema", "movie", "subscription"}},
	{"Travel", []string{"airline", "flight", "hotel", "uber", "ola", "train", "irctc"}},
	{"Healthcare", []string{"hospital", "pharmacy", "clinic", "medical"}},
	{"Fees & Charges", []string{"fee", "charge", "penalty", "commission"}},
	{"Transfer", []string{"transfer", "neft", "imps", "rtgs", "upi"}},
	{"Investment", []string{"mutual fund", "sip", "dividend", "brokerage", "fixed deposit"}},
}

type categoryProcessorImpl struct{}

func NewCategoryProcessor() CategoryProcessor {
	return &categoryProcessorImpl{}
}

// Process assigns a category to each transaction that does not already carry
// one. Unmatched descriptions stay uncategorized rather than guessing.
func (p *categoryProcessorImpl) Process(transactions []models.Transaction) []models.Transaction {
	for i, tx := range transactions {
		if tx.Category != "" {
			continue
		}
		transactions[i].Category = categorize(tx.Description)
	}
	return transactions
}

func categorize(description string) string {
	lowered := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.category
			}
		}
	}
	return ""
}
