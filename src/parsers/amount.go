// src/parsers/amount.go
package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyAndSpaceRe = regexp.MustCompile(`[₹$€£,\s]`)

// ParseAmount converts a currency string like "₹2,500" or "(1,200.50)" to a
// float64. Parentheses mark a negative amount (financial convention).
// It is total: any unparseable input yields 0.0, never an error.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0.0
	}

	cleaned := currencyAndSpaceRe.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, " ", "") // non-breaking space

	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return value
}

// Date layouts tried in order by ParseDateLenient. Day-first formats come
// first because bank statements in scope use them.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
}

// ParseDateLenient tries the known statement date layouts against a raw date
// string. The second return reports whether any layout matched; callers that
// compare dates should skip the comparison when it is false rather than
// substitute a default.
func ParseDateLenient(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
