// ledgerbridge ingests financial export files into the unified ledger and
// generates IIF interchange files for accounting software.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerbridge",
	Short: "Financial export ingestion and interchange pipeline",
	Long: `ledgerbridge ingests CSV/TSV/XLSX exports from purchasing, PSA, and
banking systems into a unified ledger, maintains weighted-average inventory
costs, and emits IIF interchange files for accounting software.`,
}

func init() {
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(exportBillsCmd())
	rootCmd.AddCommand(exportItemsCmd())
	rootCmd.AddCommand(migrateCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
