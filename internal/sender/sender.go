// Package sender decides whether an SMS sender ID is trusted enough to parse.
package sender

import (
	"regexp"
	"strings"
)

// trustedSenders holds bank short codes, card issuers and wallet senders.
// Gateways prefix or suffix these (VM-HDFCBK, AD-ICICIB-S), so matching is by substring.
var trustedSenders = []string{
	// Banks
	"HDFCBK", "HDFCBN", "ICICIB", "ICICIT", "SBIINB", "SBIUPI", "SBMSMS", "CBSSBI",
	"AXISBK", "AXISMR", "KOTAKB", "KOTAKM", "PNBSMS", "BOIIND", "BARODA", "CANBNK",
	"UNIONB", "IDFCFB", "INDUSB", "YESBNK", "FEDBNK", "RBLBNK", "AUBANK", "IDBIBK",
	// Cards
	"AMEXIN", "SBICRD", "HDFCCC", "ONECRD", "SCBANK", "CITIBK",
	// Wallets and UPI apps
	"PAYTM", "PHONEPE", "GPAY", "AMAZONPAY", "AMZPAY", "MOBIKW", "BHIM",
}

// promoKeywords are matched as substrings, so no trusted sender may contain one
var promoKeywords = []string{"OFFER", "WIN", "FREE", "GIFT", "PROMO"}

const minContainedLen = 4

var personalNumberPattern = regexp.MustCompile(`^\d{10}$`)

// Authenticator checks sender IDs against a fixed allowlist
type Authenticator struct {
	trusted []string
}

// New creates an Authenticator with the built-in allowlist plus any extra sender IDs
func New(extra ...string) *Authenticator {
	trusted := make([]string, 0, len(trustedSenders)+len(extra))
	for _, s := range append(append([]string{}, trustedSenders...), extra...) {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			trusted = append(trusted, s)
		}
	}
	return &Authenticator{trusted: trusted}
}

// IsAuthentic reports whether the sender matches, contains, or is contained by a trusted entry
func (a *Authenticator) IsAuthentic(sender string) bool {
	s := strings.ToUpper(strings.TrimSpace(sender))
	if s == "" {
		return false
	}
	for _, t := range a.trusted {
		if s == t || strings.Contains(s, t) {
			return true
		}
		// very short IDs would be contained by almost any entry
		if len(s) >= minContainedLen && strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// IsSpam reports whether the sender looks like a personal number or a promotional ID
func (a *Authenticator) IsSpam(sender string) bool {
	s := strings.ToUpper(strings.TrimSpace(sender))
	if personalNumberPattern.MatchString(s) {
		return true
	}
	for _, k := range promoKeywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Allow combines both checks: trusted and not spam
func (a *Authenticator) Allow(sender string) bool {
	return a.IsAuthentic(sender) && !a.IsSpam(sender)
}
