package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wallet/internal/cli"
	"wallet/internal/core"
	"wallet/internal/ledger"
)

var (
	flagAmount      string
	flagDate        string
	flagCategory    string
	flagDescription string
	flagPayment     string

	flagSort  string
	flagOrder string
	flagLimit int
	flagJSON  bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Example: `  wallet add --amount 455.50 --category "Food & Dining" --description "Dinner" --payment "Credit Card"
  wallet add --amount 350 --date 2024-01-14 --category Transportation`,
	RunE: runAdd,
}

var budgetCmd = &cobra.Command{
	Use:   "budget [amount]",
	Short: "Show or set the monthly budget",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBudget,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an expense by id",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List expenses",
	RunE:    runList,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Budget summary with category and monthly breakdowns",
	RunE:  runSummary,
}

func init() {
	addCmd.Flags().StringVarP(&flagAmount, "amount", "a", "", "Amount, e.g. 455.50")
	addCmd.Flags().StringVarP(&flagDate, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	addCmd.Flags().StringVarP(&flagCategory, "category", "k", "", "One of: "+strings.Join(core.Categories, ", "))
	addCmd.Flags().StringVarP(&flagDescription, "description", "m", "", "Free-text description")
	addCmd.Flags().StringVarP(&flagPayment, "payment", "p", "", "Payment method, e.g. "+strings.Join(core.PaymentMethods, ", "))
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("category")

	listCmd.Flags().StringVarP(&flagSort, "sort", "s", string(ledger.SortByDate), "Sort by date, amount, category, description or paymentMethod")
	listCmd.Flags().StringVarP(&flagOrder, "order", "o", "desc", "Sort order: asc or desc")
	listCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Show at most n expenses (0 for all)")
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(addCmd, budgetCmd, deleteCmd, listCmd, summaryCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	date := flagDate
	if date == "" {
		date = core.Date{Time: time.Now()}.String()
	}
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		e, err := m.AddExpense(cmd.Context(), ledger.NewExpense{
			Amount:        flagAmount,
			Date:          date,
			Category:      flagCategory,
			Description:   flagDescription,
			PaymentMethod: flagPayment,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Expense added successfully! #%d %s %s on %s\n",
			e.ID, cli.FormatRupees(e.Amount), e.Category, e.Date)
		return nil
	})
}

func runBudget(cmd *cobra.Command, args []string) error {
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		if len(args) == 0 {
			fmt.Println("Monthly budget:", cli.FormatRupees(m.Budget()))
			return nil
		}
		if err := m.SetBudget(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Budget updated successfully!", cli.FormatRupees(m.Budget()))
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expense id %q", args[0])
	}
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		removed, err := m.DeleteExpense(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No expense with id %d\n", id)
			return nil
		}
		fmt.Println("Expense deleted!")
		return nil
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	desc := true
	switch strings.ToLower(flagOrder) {
	case "asc":
		desc = false
	case "desc":
	default:
		return fmt.Errorf("invalid order %q: use asc or desc", flagOrder)
	}
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		expenses := m.ExpensesSorted(ledger.ParseSortField(flagSort), desc)
		if flagLimit > 0 && len(expenses) > flagLimit {
			expenses = expenses[:flagLimit]
		}
		if flagJSON {
			if expenses == nil {
				expenses = []core.Expense{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(expenses)
		}
		fmt.Print(cli.RenderExpenses(expenses))
		return nil
	})
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		sum := m.Summary()
		fmt.Println()
		fmt.Println(cli.RenderTitle("WALLET  " + time.Now().Format("January 2006")))
		fmt.Println()
		fmt.Print(cli.RenderSummary(sum))

		breakdown := m.CategoryBreakdown()
		if len(breakdown) > 0 {
			labels := make([]string, len(breakdown))
			amounts := make([]core.Money, len(breakdown))
			rows := make([][]string, len(breakdown))
			for i, c := range breakdown {
				labels[i], amounts[i] = c.Name, c.Amount
				rows[i] = []string{c.Name, cli.FormatRupees(c.Amount), cli.FormatPercent(c.Amount, sum.TotalSpent)}
			}
			fmt.Println()
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "By Category",
				Headers: []string{"Category", "Spent", "Share"},
				Rows:    rows,
			}))
			fmt.Println()
			fmt.Print(cli.RenderBars("Spending by Category", labels, amounts, 30))
		}

		months := m.ByMonth()
		if len(months) > 0 {
			labels := make([]string, len(months))
			amounts := make([]core.Money, len(months))
			for i, mt := range months {
				labels[i], amounts[i] = cli.FormatMonth(mt.Month), mt.Total
			}
			fmt.Println()
			fmt.Print(cli.RenderBars("Monthly Trend", labels, amounts, 30))
		}
		fmt.Println()
		return nil
	})
}
