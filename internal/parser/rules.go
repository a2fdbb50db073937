package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
)

// rule is one extraction step. Rules run in order and may read fields set by
// earlier rules; a required rule that does not match rejects the message.
type rule struct {
	name     string
	required bool
	apply    func(body string, out *ParsedTransaction) bool
}

var defaultRules = []rule{
	{name: "type", required: true, apply: extractType},
	{name: "amount", required: true, apply: extractAmount},
	{name: "merchant", apply: extractMerchant},
	{name: "vpa", apply: extractVPA},
	{name: "reference", apply: extractReference},
	{name: "balance", apply: extractBalance},
}

// Keyword groups, checked credit first
var (
	creditKeywords = []string{"credited", "deposited", "received"}
	debitKeywords  = []string{"debited", "withdrawn", "paid", "sent"}
)

const currencyPrefix = `(?:\b(?:Rs|INR)\.?|₹)`

// amountToken is a number with optional thousands separators and fraction
const amountToken = `([\d,]*\d(?:\.\d+)?)`

var (
	creditPattern = keywordPattern(creditKeywords)
	debitPattern  = keywordPattern(debitKeywords)

	creditAmountPattern = keywordAmountPattern(creditKeywords)
	debitAmountPattern  = keywordAmountPattern(debitKeywords)

	currencyAmountPattern = regexp.MustCompile(`(?i)` + currencyPrefix + `\s*` + amountToken)

	// "user.name@okhdfcbank", "9876543210@ybl"
	vpaPattern = regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z]+\b`)

	// "Ref No 123456", "UTR: AXN12345678", "Txn# 998877"
	referencePattern = regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|utr|txn|transaction)\s*(?:no|number|id|#)?\.?\s*[:.#-]?\s*([A-Za-z0-9]{6,20})\b`)

	// "UPI Ref 412345678901", "UPI/412345678901/"
	upiReferencePattern = regexp.MustCompile(`(?i)\bupi[\s/:-]*(?:ref(?:erence)?\s*(?:no|id)?\.?\s*[:.#-]?\s*)?(\d{9,})`)

	// "Avl Bal Rs 5,000.00", "Available Balance: INR 12.50", "Bal-Rs.100"
	balancePattern = regexp.MustCompile(`(?i)\b(?:avl\.?\s*bal(?:ance)?|avail(?:able)?\.?\s*bal(?:ance)?|bal(?:ance)?)\b\s*(?:is|:|-)?\s*(?:` + currencyPrefix + `)?\s*` + amountToken)
)

func keywordPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
}

func keywordAmountPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b\s*(?:(?:with|by|for|of)\s+)?` + currencyPrefix + `\s*` + amountToken)
}

// balanceWords mark an amount as the account balance rather than the transaction amount
var balanceWords = []string{"bal", "avl"}

const balanceLookbehind = 20

func extractType(body string, out *ParsedTransaction) bool {
	switch {
	case creditPattern.MatchString(body):
		out.Type = models.TypeCredit
	case debitPattern.MatchString(body):
		out.Type = models.TypeDebit
	default:
		return false
	}
	return true
}

func extractAmount(body string, out *ParsedTransaction) bool {
	keywordAmount := debitAmountPattern
	if out.Type == models.TypeCredit {
		keywordAmount = creditAmountPattern
	}

	// Primary: amount right after the transaction keyword
	for _, m := range keywordAmount.FindAllStringSubmatch(body, -1) {
		if amt, ok := parseAmount(m[1]); ok {
			out.Amount = amt
			return true
		}
	}

	// Fallback: first currency amount that is not next to a balance label
	lower := strings.ToLower(body)
	for _, idx := range currencyAmountPattern.FindAllStringSubmatchIndex(body, -1) {
		start := idx[0]
		if isBalanceAdjacent(lower, start) {
			continue
		}
		if amt, ok := parseAmount(body[idx[2]:idx[3]]); ok {
			out.Amount = amt
			return true
		}
	}
	return false
}

func isBalanceAdjacent(lower string, start int) bool {
	from := start - balanceLookbehind
	if from < 0 {
		from = 0
	}
	window := lower[from:start]
	for _, w := range balanceWords {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}

func extractVPA(body string, out *ParsedTransaction) bool {
	vpa := vpaPattern.FindString(body)
	if vpa == "" {
		return false
	}
	out.VPA = vpa
	return true
}

func extractReference(body string, out *ParsedTransaction) bool {
	for _, m := range referencePattern.FindAllStringSubmatch(body, -1) {
		// labels like "Transaction amount" capture plain words
		if strings.ContainsAny(m[1], "0123456789") {
			out.ReferenceNumber = m[1]
			return true
		}
	}
	if m := upiReferencePattern.FindStringSubmatch(body); len(m) > 1 {
		out.ReferenceNumber = m[1]
		return true
	}
	return false
}

func extractBalance(body string, out *ParsedTransaction) bool {
	m := balancePattern.FindStringSubmatch(body)
	if len(m) < 2 {
		return false
	}
	amt, ok := parseAmountAllowZero(m[1])
	if !ok {
		return false
	}
	out.AvailableBalance = &amt
	return true
}

// parseAmount converts "1,234.50" to a positive decimal
func parseAmount(s string) (decimal.Decimal, bool) {
	d, ok := parseAmountAllowZero(s)
	if !ok || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func parseAmountAllowZero(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
