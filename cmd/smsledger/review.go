package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smsledger/internal/ledger"
	"smsledger/internal/models"
)

var (
	reviewLimit        int
	categorizeRemember bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List transactions that still need a category",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize [transaction-id] [category]",
	Short: "Set the category of a transaction",
	Long:  "Sets the category of a transaction and clears its review flag. Categories: " + strings.Join(models.Categories, ", "),
	Args:  cobra.ExactArgs(2),
	RunE:  runCategorize,
}

func init() {
	reviewCmd.Flags().IntVarP(&reviewLimit, "limit", "n", 50, "Maximum number of transactions to list")
	categorizeCmd.Flags().BoolVar(&categorizeRemember, "remember", false, "Use this category for the merchant from now on")
}

func runReview(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	needsReview := true
	txns, err := a.DB.ListTransactions(cmd.Context(), models.TransactionFilter{NeedsReview: &needsReview, Limit: reviewLimit})
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tMERCHANT\tSENDER")
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Timestamp.In(cfg.Location).Format("2006-01-02 15:04"),
			t.Type,
			t.Amount.StringFixed(2),
			orDash(t.MerchantName),
			t.Sender,
		)
	}
	return tw.Flush()
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, category := args[0], args[1]
	if !slices.Contains(models.Categories, category) {
		return fmt.Errorf("unknown category %q (choose from: %s)", category, strings.Join(models.Categories, ", "))
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	txn, err := a.DB.GetTransaction(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no transaction with ID %s", id)
	}
	if err != nil {
		return err
	}

	keyword := txn.MerchantName
	if keyword == "" {
		keyword = txn.MerchantRaw
	}
	if categorizeRemember && keyword == "" {
		return errors.New("transaction has no merchant to remember")
	}

	if err := a.DB.SetCategory(ctx, id, category); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", id, category)

	if !categorizeRemember {
		return nil
	}
	m, err := a.Learned.Learn(ctx, keyword, category, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Remembered %s -> %s\n", m.Keyword, m.Category)
	return nil
}
