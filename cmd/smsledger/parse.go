package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smsledger/internal/ingest"
	"smsledger/internal/models"
	"smsledger/internal/parser"
	"smsledger/internal/sender"
)

var (
	parseSender string
	parseAt     string
	parseDebug  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [sms-body]",
	Short: "Show what the parser and categorizer extract from one SMS",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseSender, "sender", "s", "VM-HDFCBK", "Sender ID of the message")
	parseCmd.Flags().StringVar(&parseAt, "at", "", "Receipt time (RFC 3339, default now)")
	parseCmd.Flags().BoolVar(&parseDebug, "debug", false, "Print which extraction rules matched")
}

func runParse(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	body := args[0]

	ts := time.Now()
	if parseAt != "" {
		var err error
		if ts, err = time.Parse(time.RFC3339, parseAt); err != nil {
			return fmt.Errorf("invalid --at time %q: %w", parseAt, err)
		}
	}

	auth := sender.New(cfg.TrustedSenders...)
	fmt.Fprintf(out, "Sender:      %s (trusted=%t spam=%t)\n", parseSender, auth.IsAuthentic(parseSender), auth.IsSpam(parseSender))

	parsed := parser.NewSMSParser().WithDebug(parseDebug).Parse(body, parseSender, ts)
	if parsed == nil {
		fmt.Fprintln(out, "Not a transaction")
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	txn := parsed.Transaction(ingest.TransactionID(models.RawMessage{Body: body, Sender: parseSender, Timestamp: ts}))
	a.Engine.CategorizeAll([]*models.Transaction{&txn})

	fmt.Fprintf(out, "ID:          %s\n", txn.ID)
	fmt.Fprintf(out, "Type:        %s\n", txn.Type)
	fmt.Fprintf(out, "Amount:      %s\n", txn.Amount.StringFixed(2))
	fmt.Fprintf(out, "Merchant:    %s\n", orDash(txn.MerchantName))
	fmt.Fprintf(out, "Raw:         %s\n", orDash(txn.MerchantRaw))
	fmt.Fprintf(out, "VPA:         %s\n", orDash(txn.VPA))
	fmt.Fprintf(out, "Reference:   %s\n", orDash(txn.ReferenceNumber))
	if txn.AvailableBalance != nil {
		fmt.Fprintf(out, "Balance:     %s\n", txn.AvailableBalance.StringFixed(2))
	}
	fmt.Fprintf(out, "Category:    %s\n", orDash(txn.Category))
	fmt.Fprintf(out, "Review:      %t\n", txn.NeedsReview)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
