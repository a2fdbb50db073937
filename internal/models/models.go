package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement
type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Category labels shared by the categorizer, budgets and the review API
const (
	CatFood          = "Food & Dining"
	CatGroceries     = "Groceries"
	CatShopping      = "Shopping"
	CatTransport     = "Transportation"
	CatTravel        = "Travel"
	CatEntertainment = "Entertainment"
	CatUtilities     = "Utilities"
	CatFuel          = "Fuel"
	CatHealth        = "Health & Fitness"
	CatEducation     = "Education"
	CatTransfer      = "Transfer"
	CatIncome        = "Income"
)

// Categories is the list of categories offered for manual review
var Categories = []string{
	CatFood,
	CatGroceries,
	CatShopping,
	CatTransport,
	CatTravel,
	CatEntertainment,
	CatUtilities,
	CatFuel,
	CatHealth,
	CatEducation,
	CatTransfer,
	CatIncome,
}

// Transaction is one ledger record. Optional text fields use "" for absent.
type Transaction struct {
	ID               string
	Amount           decimal.Decimal // always > 0
	Type             TransactionType
	MerchantRaw      string // merchant text as it appeared in the message
	MerchantName     string // cleaned display name
	Category         string
	Timestamp        time.Time // message receipt time
	Body             string
	Sender           string
	ReferenceNumber  string
	VPA              string
	AvailableBalance *decimal.Decimal
	NeedsReview      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VPALocalPart returns the portion of the VPA before '@'
func (t Transaction) VPALocalPart() string {
	if i := strings.IndexByte(t.VPA, '@'); i > 0 {
		return t.VPA[:i]
	}
	return t.VPA
}

// NotificationSignal is a payment-app notification held briefly for correlation
type NotificationSignal struct {
	PackageName       string
	AppName           string
	Amount            decimal.Decimal
	Timestamp         time.Time
	Text              string
	SuggestedCategory string
	MerchantName      string
}

// ContextMatch is an advisory merchant/category suggestion from a recent notification
type ContextMatch struct {
	MerchantName string
	Category     string
	AppName      string
	Confidence   float64
}

// MerchantMapping is a user-taught keyword to category mapping
type MerchantMapping struct {
	Keyword         string // uppercased
	Category        string
	UsageCount      int
	LastUsed        time.Time
	ConfirmedByUser bool
}

// BudgetPeriod is the window a budget limit applies to
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known period
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

type Budget struct {
	ID             string
	Category       string
	Limit          decimal.Decimal
	Period         BudgetPeriod
	AlertThreshold int // percent of limit
	Active         bool
	CreatedAt      time.Time
}

// BudgetSummary is derived from a budget and the categorized ledger
type BudgetSummary struct {
	Budget         Budget
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Spent          decimal.Decimal
	Remaining      decimal.Decimal // may be negative
	Progress       float64         // spent / limit
	OverBudget     bool
	AlertTriggered bool
}

// SweepRun records one pass of the matching engine over the ledger
type SweepRun struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string // running, completed, failed
	ReferenceMerges  int
	SimilarityMerges int
	Deleted          int
	Failures         int
	Error            string
}

// Job represents a background job in the queue
type Job struct {
	ID          int64
	JobType     string
	Payload     string // JSON payload
	Status      string // pending, running, completed, failed
	Progress    int    // 0-100
	Result      string // JSON result or error message
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	NeedsReview *bool
	Category    string
	Since       time.Time
	Limit       int
}

// RawMessage is one incoming SMS as delivered by the phone or a backup file
type RawMessage struct {
	Body      string
	Sender    string
	Timestamp time.Time
}

// RawNotification is one payment-app notification
type RawNotification struct {
	PackageName string
	Text        string
	Timestamp   time.Time
}
