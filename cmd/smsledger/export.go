package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"smsledger/internal/models"
)

var (
	exportOut  string
	exportFrom string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ledger to a CSV file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "CSV file to write ('-' for stdout)")
	exportCmd.Flags().StringVarP(&exportFrom, "from", "f", "", "Only export transactions from this date onwards (format: YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, args []string) error {
	filter := models.TransactionFilter{}
	if exportFrom != "" {
		since, err := time.ParseInLocation(time.DateOnly, exportFrom, cfg.Location)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", exportFrom, err)
		}
		filter.Since = since
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	txns, err := a.DB.ListTransactions(cmd.Context(), filter)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("error creating %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	if err := writeCSV(w, txns, cfg.Location); err != nil {
		return err
	}
	if exportOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d transactions to %s\n", len(txns), exportOut)
	}
	return nil
}

// writeCSV writes one row per transaction, oldest first
func writeCSV(w io.Writer, txns []models.Transaction, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "type", "amount", "merchant", "category", "reference", "vpa", "sender", "needs_review"}); err != nil {
		return err
	}
	for i := len(txns) - 1; i >= 0; i-- {
		t := txns[i]
		row := []string{
			t.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.Amount.StringFixed(2),
			t.MerchantName,
			t.Category,
			t.ReferenceNumber,
			t.VPA,
			t.Sender,
			fmt.Sprint(t.NeedsReview),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
