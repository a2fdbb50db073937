package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smsledger/internal/jobs"
	"smsledger/internal/smsbackup"
)

var (
	importSender  string
	importFrom    string
	importNoSweep bool
)

var importCmd = &cobra.Command{
	Use:   "import [xml-file]",
	Short: "Import an SMS backup XML file into the ledger",
	Long:  `Reads an "SMS Backup & Restore" XML export, records every bank transaction from trusted senders and then removes duplicates.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Merge and remove duplicate ledger records",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	importCmd.Flags().StringVarP(&importSender, "sender", "s", "", "Only import messages whose sender contains this text (e.g. 'HDFCBK')")
	importCmd.Flags().StringVarP(&importFrom, "from", "f", "", "Only import messages from this date onwards (format: YYYY-MM-DD)")
	importCmd.Flags().BoolVar(&importNoSweep, "no-sweep", false, "Skip the duplicate sweep after importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filter := smsbackup.Filter{Sender: importSender}
	if importFrom != "" {
		since, err := time.ParseInLocation(time.DateOnly, importFrom, cfg.Location)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", importFrom, err)
		}
		filter.Since = since
	}

	msgs, err := smsbackup.ReadFile(args[0], filter)
	if err != nil {
		return fmt.Errorf("failed to read SMS backup: %w", err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.Pipeline.Import(ctx, msgs, nil)
	fmt.Fprintf(out, "Read %d messages: %d inserted, %d duplicates, %d untrusted senders, %d not transactions, %d failed\n",
		report.Total, report.Inserted, report.Duplicates, report.Rejected, report.NotTransactions, report.Failed)
	for _, e := range report.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}

	if importNoSweep || report.Inserted == 0 {
		return nil
	}
	run, err := jobs.RunSweep(ctx, a.DB, a.Matcher)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	printSweep(cmd, run.ReferenceMerges, run.SimilarityMerges, run.Deleted, run.Failures)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := jobs.RunSweep(cmd.Context(), a.DB, a.Matcher)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	printSweep(cmd, run.ReferenceMerges, run.SimilarityMerges, run.Deleted, run.Failures)
	return nil
}

func printSweep(cmd *cobra.Command, refMerges, simMerges, deleted, failures int) {
	fmt.Fprintf(cmd.OutOrStdout(), "Sweep: %d reference merges, %d similarity merges, %d records removed, %d failures\n",
		refMerges, simMerges, deleted, failures)
}
