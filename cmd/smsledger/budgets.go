package main

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"smsledger/internal/budget"
	"smsledger/internal/models"
)

var (
	budgetPeriod string
	budgetAlert  int
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Show spending against active budgets",
	Args:  cobra.NoArgs,
	RunE:  runBudgets,
}

var budgetsSetCmd = &cobra.Command{
	Use:   "set [category] [limit]",
	Short: "Create or replace the budget for a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetsSet,
}

func init() {
	budgetsSetCmd.Flags().StringVarP(&budgetPeriod, "period", "p", string(models.PeriodMonthly), "Budget period: daily, weekly, monthly or yearly")
	budgetsSetCmd.Flags().IntVar(&budgetAlert, "alert", 80, "Alert when spending reaches this percent of the limit (0 disables)")
	budgetsCmd.AddCommand(budgetsSetCmd)
}

func runBudgets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	budgets, err := a.DB.ListBudgets(ctx, true)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No active budgets. Create one with: smsledger budgets set <category> <limit>")
		return nil
	}

	now := time.Now().In(cfg.Location)
	earliest := now
	for _, b := range budgets {
		if start, _ := budget.PeriodBounds(b.Period, now); start.Before(earliest) {
			earliest = start
		}
	}
	txns, err := a.DB.ListTransactions(ctx, models.TransactionFilter{Since: earliest})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPERIOD\tSPENT\tLIMIT\tREMAINING\tUSED\t")
	for _, s := range budget.SummarizeAll(budgets, txns, now) {
		flag := ""
		switch {
		case s.OverBudget:
			flag = "OVER"
		case s.AlertTriggered:
			flag = "ALERT"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			s.Budget.Category, s.Budget.Period,
			s.Spent.StringFixed(2), s.Budget.Limit.StringFixed(2), s.Remaining.StringFixed(2),
			s.Progress*100, flag)
	}
	return tw.Flush()
}

func runBudgetsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	category := args[0]
	if !slices.Contains(models.Categories, category) {
		return fmt.Errorf("unknown category %q", category)
	}
	limit, err := decimal.NewFromString(args[1])
	if err != nil || !limit.IsPositive() {
		return fmt.Errorf("limit must be a positive amount, got %q", args[1])
	}
	period := models.BudgetPeriod(budgetPeriod)
	if !period.Valid() {
		return fmt.Errorf("invalid period %q", budgetPeriod)
	}
	if budgetAlert < 0 || budgetAlert > 100 {
		return fmt.Errorf("--alert must be between 0 and 100")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// one budget per category: reuse the existing ID
	b := models.Budget{ID: uuid.NewString()}
	existing, err := a.DB.ListBudgets(ctx, false)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Category == category {
			b = e
			break
		}
	}
	b.Category = category
	b.Limit = limit
	b.Period = period
	b.AlertThreshold = budgetAlert
	b.Active = true

	if err := a.DB.SaveBudget(ctx, b); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Budget %s: %s per %s period\n", category, limit.StringFixed(2), period)
	return nil
}
