package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wallet/internal/cli"
	"wallet/internal/core"
	"wallet/internal/events"
	"wallet/internal/ledger"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow ledger changes published by a running dashboard",
	RunE:  runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not configured")
	}
	ctx, stop := cli.GracefulShutdown(cmd.Context(), logger)
	defer stop()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Consume(ctx, func(msg *events.ChangeMessage) error {
		fmt.Println(describeChange(msg))
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func describeChange(msg *events.ChangeMessage) string {
	ts := msg.Timestamp.Local().Format("2006-01-02 15:04:05")
	budget := cli.FormatRupees(core.Money{Cents: msg.BudgetCents})
	switch ledger.ChangeKind(msg.Kind) {
	case ledger.ChangeExpenseAdded:
		return fmt.Sprintf("%s  #%d added %s (%d expenses)", ts, msg.ExpenseID, cli.FormatRupees(core.Money{Cents: msg.AmountCents}), msg.Count)
	case ledger.ChangeExpenseDeleted:
		return fmt.Sprintf("%s  #%d deleted %s (%d expenses)", ts, msg.ExpenseID, cli.FormatRupees(core.Money{Cents: msg.AmountCents}), msg.Count)
	case ledger.ChangeBudgetSet:
		return fmt.Sprintf("%s  budget set to %s", ts, budget)
	default:
		return fmt.Sprintf("%s  %s: %d expenses, budget %s", ts, msg.Kind, msg.Count, budget)
	}
}
