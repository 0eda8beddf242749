package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"payment-gateway/internal/adapters/storage/clickhouse"
	"payment-gateway/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{Use: "ch-query-tool", Short: "Query the settlement audit table"}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the config file")

	open := func(ctx context.Context) (*clickhouse.SettlementAudit, func(), error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		conn, err := clickhouse.Open(ctx, cfg.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		return clickhouse.NewSettlementAudit(conn), func() { _ = conn.Close() }, nil
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Settled payments by method and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetDuration("since")
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rows, err := store.Summary(cmd.Context(), time.Now().Add(-since))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tSTATUS\tPAYMENTS\tAMOUNT (PAISE)")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.Method, r.Status, r.Payments, r.Amount)
			}
			fmt.Fprintf(w, "\t\t\t\nSUCCESS RATE\t%.2f%%\t\t\n", clickhouse.SuccessRate(rows))
			return w.Flush()
		},
	}
	summaryCmd.Flags().Duration("since", 24*time.Hour, "Look-back window")

	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "Most recent failed settlements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rows, err := store.RecentFailures(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PAYMENT ID\tMETHOD\tERROR CODE\tAMOUNT\tSETTLED AT")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.PaymentID, r.Method, r.ErrorCode, r.Amount, r.SettledAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	failuresCmd.Flags().Int("limit", 20, "Number of rows")

	rootCmd.AddCommand(summaryCmd, failuresCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
