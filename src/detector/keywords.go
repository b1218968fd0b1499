// src/detector/keywords.go
package detector

// Keyword tables driving the text-matching passes. Kept as data so they can
// be tuned and tested independently of the detection logic.
var (
	suspiciousKeywords = []string{
		"cash", "crypto", "bitcoin", "gambling", "casino", "betting",
		"loan", "advance", "urgent", "emergency", "wire transfer",
	}

	foreignIndicators = []string{
		"usd", "eur", "gbp", "foreign", "international", "overseas",
	}

	highRiskMerchantPatterns = []string{
		"atm", "casino", "gambling", "betting", "lottery",
		"pawn shop", "check cashing", "payday loan",
		"money transfer", "western union", "moneygram",
	}

	overdraftKeywords = []string{
		"overdraft", "overdrawn", "insufficient funds", "nsf", "returned check",
	}

	overdueKeywords = []string{
		"overdue", "past due", "late payment", "penalty", "interest charges",
	}
)
