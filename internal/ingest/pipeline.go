// Package ingest turns raw SMS and payment-app notifications into ledger records.
package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"smsledger/internal/categorizer"
	"smsledger/internal/ledger"
	"smsledger/internal/logger"
	"smsledger/internal/models"
	"smsledger/internal/notification"
	"smsledger/internal/parser"
	"smsledger/internal/sender"
)

// Outcome is what happened to one message
type Outcome string

const (
	OutcomeRejectedSender Outcome = "rejected_sender"
	OutcomeNotTransaction Outcome = "not_transaction"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeInserted       Outcome = "inserted"
)

// messageNamespace scopes the name-based transaction IDs
var messageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("smsledger:message"))

// TransactionID derives a stable ID from a message so redelivery and
// re-import of the same SMS map to the same record.
func TransactionID(msg models.RawMessage) string {
	name := msg.Sender + "|" + strconv.FormatInt(msg.Timestamp.UnixMilli(), 10) + "|" + msg.Body
	return uuid.NewSHA1(messageNamespace, []byte(name)).String()
}

// Result is the outcome of processing one message
type Result struct {
	Outcome     Outcome
	Transaction *models.Transaction // set when inserted or duplicate by ID
}

// Pipeline authenticates, parses, categorizes, enriches and stores messages.
// It is safe for concurrent use when its ledger is.
type Pipeline struct {
	ledger   ledger.Ledger
	auth     *sender.Authenticator
	parser   *parser.SMSParser
	engine   *categorizer.Engine
	cache    *notification.Cache
	enricher *notification.Enricher
}

// NewPipeline wires a pipeline. cache and enricher may be nil to disable
// notification correlation.
func NewPipeline(l ledger.Ledger, auth *sender.Authenticator, engine *categorizer.Engine, cache *notification.Cache, enricher *notification.Enricher) *Pipeline {
	return &Pipeline{
		ledger:   l,
		auth:     auth,
		parser:   parser.NewSMSParser(),
		engine:   engine,
		cache:    cache,
		enricher: enricher,
	}
}

// Process runs one SMS through the pipeline. Rejected senders, non-transactions
// and duplicates are normal outcomes; only ledger failures return an error.
func (p *Pipeline) Process(ctx context.Context, msg models.RawMessage) (Result, error) {
	l := logger.FromContext(ctx).With("sender", msg.Sender)

	if !p.auth.Allow(msg.Sender) {
		l.Debug("ingest_sender_rejected")
		return Result{Outcome: OutcomeRejectedSender}, nil
	}

	parsed := p.parser.Parse(msg.Body, msg.Sender, msg.Timestamp)
	if parsed == nil {
		l.Debug("ingest_not_transaction")
		return Result{Outcome: OutcomeNotTransaction}, nil
	}

	id := TransactionID(msg)
	exists, err := p.ledger.ExistsByID(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("check duplicate: %w", err)
	}
	ctx = logger.WithTransactionID(ctx, id)
	l = logger.FromContext(ctx).With("sender", msg.Sender)
	if exists {
		l.Debug("ingest_duplicate", "reason", "same_message")
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	if parsed.ReferenceNumber != "" {
		existing, err := p.ledger.FindByReferenceNumber(ctx, parsed.ReferenceNumber)
		if err != nil {
			return Result{}, fmt.Errorf("check reference: %w", err)
		}
		if existing != nil && existing.Sender == msg.Sender && existing.Amount.Equal(parsed.Amount) {
			l.Debug("ingest_duplicate", "reason", "same_reference", "existing_id", existing.ID)
			return Result{Outcome: OutcomeDuplicate}, nil
		}
	}

	txn := parsed.Transaction(id)
	p.categorize(&txn)

	if err := p.ledger.Insert(ctx, txn); err != nil {
		return Result{}, fmt.Errorf("insert transaction: %w", err)
	}

	l.Info("ingest_inserted",
		"amount", txn.Amount.String(),
		"type", string(txn.Type),
		"category", txn.Category,
		"needs_review", txn.NeedsReview,
	)
	return Result{Outcome: OutcomeInserted, Transaction: &txn}, nil
}

// categorize runs the rule cascade, then falls back to a recent notification
// when merchant or category is still missing.
func (p *Pipeline) categorize(txn *models.Transaction) {
	p.engine.CategorizeAll([]*models.Transaction{txn})

	if p.enricher == nil || (txn.MerchantName != "" && txn.Category != "") {
		return
	}
	match := p.enricher.EnrichWithContext(*txn)
	if !notification.Apply(txn, match) {
		return
	}
	// a merchant recovered from the notification may now hit the registry
	if txn.Category == "" {
		p.engine.CategorizeAll([]*models.Transaction{txn})
	}
}

// ProcessNotification caches a payment-app notification for correlation and,
// when the app is a trusted sender, records it as a transaction so the
// matching sweep can pair it with the bank SMS.
func (p *Pipeline) ProcessNotification(ctx context.Context, n models.RawNotification) (Result, error) {
	l := logger.FromContext(ctx).With("package", n.PackageName)

	signal := parser.ParseNotification(n.PackageName, n.Text, n.Timestamp)
	if signal == nil {
		l.Debug("ingest_notification_ignored")
		return Result{Outcome: OutcomeNotTransaction}, nil
	}
	if p.cache != nil {
		p.cache.Add(*signal)
	}

	// Tag the body with the app so the record reads as an app-side message
	return p.Process(ctx, models.RawMessage{
		Body:      fmt.Sprintf("[%s UPI] %s", signal.AppName, signal.Text),
		Sender:    signal.AppName,
		Timestamp: n.Timestamp,
	})
}
