package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	prepositionPattern = regexp.MustCompile(`(?i)\b(?:to|at|from|via|by)\s+`)

	// Merchant text ends at a reference/date/balance label, a clause break, or end of text
	merchantTerminatorPattern = regexp.MustCompile(`(?i)\s+(?:ref|utr|on|avl|via|using|for|upi\s+ref|txn)\b|[;,()]|\.\s|\.$|\s+-\s`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// bankingJargon are phrases that follow a preposition but are not merchants
var bankingJargon = []string{
	"mob bk", "mobile banking", "net banking", "netbanking", "internet banking",
	"atm", "pos", "neft", "rtgs", "imps", "upi",
	"your", "a/c", "ac", "acct", "account", "card", "xx", "self", "beneficiary",
}

// corporateSuffixes are stripped from the end of a merchant name
var corporateSuffixes = map[string]bool{
	"india": true, "ltd": true, "limited": true, "pvt": true, "private": true,
	"store": true, "stores": true, "mart": true, "retail": true, "llp": true,
	"inc": true, "corp": true, "co": true,
}

const maxMerchantLen = 40

func extractMerchant(body string, out *ParsedTransaction) bool {
	raw, ok := findMerchant(body)
	if !ok {
		return false
	}
	out.MerchantRaw = raw
	out.Merchant = CleanMerchantName(raw)
	return true
}

// findMerchant returns the first non-jargon text that follows a preposition
func findMerchant(body string) (string, bool) {
	for _, loc := range prepositionPattern.FindAllStringIndex(body, -1) {
		rest := body[loc[1]:]
		if end := merchantTerminatorPattern.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		candidate := strings.TrimSpace(whitespacePattern.ReplaceAllString(rest, " "))
		candidate = strings.TrimRight(candidate, ".:-/ ")
		if candidate == "" || isBankingJargon(candidate) {
			continue
		}
		return truncateWords(candidate, maxMerchantLen), true
	}
	return "", false
}

// isBankingJargon rejects account references, channels and amounts
func isBankingJargon(candidate string) bool {
	first := []rune(candidate)[0]
	if !unicode.IsLetter(first) {
		return true
	}
	if loc := currencyAmountPattern.FindStringIndex(candidate); loc != nil && loc[0] == 0 {
		return true
	}

	lower := strings.ToLower(candidate)
	for _, j := range bankingJargon {
		if !strings.HasPrefix(lower, j) {
			continue
		}
		if len(lower) == len(j) {
			return true
		}
		next := rune(lower[len(j)])
		if !unicode.IsLetter(next) {
			return true
		}
	}
	return false
}

// CleanMerchantName strips corporate suffixes and title-cases each word
func CleanMerchantName(raw string) string {
	words := strings.Fields(raw)
	end := len(words)
	for end > 1 {
		w := strings.ToLower(strings.Trim(words[end-1], ".,"))
		if !corporateSuffixes[w] {
			break
		}
		end--
	}
	cleaned := strings.Join(words[:end], " ")
	cleaned = strings.TrimRight(cleaned, ".,-")
	if cleaned == "" {
		cleaned = raw
	}
	return cases.Title(language.Und).String(strings.ToLower(cleaned))
}

func truncateWords(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := strings.LastIndexByte(s[:maxLen], ' ')
	if cut <= 0 {
		return s[:maxLen]
	}
	return s[:cut]
}
