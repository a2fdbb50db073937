package ingest

import (
	"context"

	"smsledger/internal/logger"
	"smsledger/internal/models"
)

// maxReportedErrors caps the error messages kept in an ImportReport
const maxReportedErrors = 20

// ImportReport counts outcomes of a batch import
type ImportReport struct {
	Total           int      `json:"total"`
	Inserted        int      `json:"inserted"`
	Duplicates      int      `json:"duplicates"`
	Rejected        int      `json:"rejected"`
	NotTransactions int      `json:"not_transactions"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
}

// Import processes a batch of historical messages. A failed insert is counted
// and the batch continues. progress, if set, is called after every message.
func (p *Pipeline) Import(ctx context.Context, msgs []models.RawMessage, progress func(done, total int)) ImportReport {
	l := logger.FromContext(ctx)
	report := ImportReport{Total: len(msgs)}

	for i, msg := range msgs {
		if ctx.Err() != nil {
			report.Failed += len(msgs) - i
			report.addError(ctx.Err().Error())
			break
		}

		res, err := p.Process(ctx, msg)
		switch {
		case err != nil:
			report.Failed++
			report.addError(err.Error())
			l.Warn("import_message_failed", "sender", msg.Sender, "error", err.Error())
		case res.Outcome == OutcomeInserted:
			report.Inserted++
		case res.Outcome == OutcomeDuplicate:
			report.Duplicates++
		case res.Outcome == OutcomeRejectedSender:
			report.Rejected++
		case res.Outcome == OutcomeNotTransaction:
			report.NotTransactions++
		}

		if progress != nil {
			progress(i+1, len(msgs))
		}
	}

	l.Info("import_completed",
		"total", report.Total,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"rejected", report.Rejected,
		"not_transactions", report.NotTransactions,
		"failed", report.Failed,
	)
	return report
}

func (r *ImportReport) addError(msg string) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}
