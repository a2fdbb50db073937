package parser

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
)

// ParsedTransaction is the structured candidate extracted from one message.
// Amount and Type are always set; everything else is optional.
type ParsedTransaction struct {
	Amount           decimal.Decimal
	Type             models.TransactionType
	MerchantRaw      string // text as found after the preposition
	Merchant         string // cleaned, title-cased display name
	ReferenceNumber  string
	VPA              string
	AvailableBalance *decimal.Decimal
	Sender           string
	Body             string
	Timestamp        time.Time
}

// Transaction converts the candidate into a ledger record with the given ID.
// Category and review state are left to the categorizer.
func (p *ParsedTransaction) Transaction(id string) models.Transaction {
	return models.Transaction{
		ID:               id,
		Amount:           p.Amount,
		Type:             p.Type,
		MerchantRaw:      p.MerchantRaw,
		MerchantName:     p.Merchant,
		Timestamp:        p.Timestamp,
		Body:             p.Body,
		Sender:           p.Sender,
		ReferenceNumber:  p.ReferenceNumber,
		VPA:              p.VPA,
		AvailableBalance: p.AvailableBalance,
		NeedsReview:      true,
	}
}

// SMSParser turns free-form bank SMS text into a ParsedTransaction.
// It holds no mutable state and is safe for concurrent use.
type SMSParser struct {
	rules []rule
	debug bool
}

// NewSMSParser creates a parser with the default rule set
func NewSMSParser() *SMSParser {
	return &SMSParser{rules: defaultRules}
}

// WithDebug enables per-rule debug output
func (p *SMSParser) WithDebug(debug bool) *SMSParser {
	p.debug = debug
	return p
}

// Parse extracts a transaction from body. It returns nil when the message is not
// a transaction: no credit/debit keyword or no extractable amount.
func (p *SMSParser) Parse(body, sender string, ts time.Time) *ParsedTransaction {
	out := &ParsedTransaction{
		Sender:    sender,
		Body:      body,
		Timestamp: ts,
	}

	for _, r := range p.rules {
		ok := r.apply(body, out)
		p.debugLog("rule %s matched=%t", r.name, ok)
		if !ok && r.required {
			return nil
		}
	}

	return out
}

// debugLog prints debug output if debug mode is enabled
func (p *SMSParser) debugLog(format string, args ...interface{}) {
	if p.debug {
		log.Printf("[SMSParser] "+format, args...)
	}
}
