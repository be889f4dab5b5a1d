package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	ingestservice "github.com/finvern/ledgerbridge/internal/domain/ingest/service"
	"github.com/finvern/ledgerbridge/internal/domain/interchange"
	"github.com/finvern/ledgerbridge/internal/domain/ledger/repository"
	"github.com/finvern/ledgerbridge/pkg/config"
	"github.com/finvern/ledgerbridge/pkg/db"
	"github.com/finvern/ledgerbridge/pkg/storage"
)

// deps wires the dependency graph shared by every command.
type deps struct {
	cfg    *config.Config
	db     *db.DB
	logger *slog.Logger
	repo   *repository.Repository
}

func initDeps() (*deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, err
	}

	d := &deps{
		cfg:    cfg,
		db:     database,
		logger: logger,
		repo:   repository.NewRepository(database.Pool),
	}

	if cfg.Observability.MetricsEnabled {
		go d.serveMetrics()
	}
	return d, nil
}

// serveMetrics exposes Prometheus counters for the lifetime of the command,
// so long batch runs can be scraped.
func (d *deps) serveMetrics() {
	addr := fmt.Sprintf(":%d", d.cfg.Observability.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		d.logger.Warn("metrics listener stopped", "error", err)
	}
}

func (d *deps) close() {
	d.db.Close()
}

func (d *deps) accounts() interchange.Accounts {
	return interchange.Accounts{
		AccountsPayable: d.cfg.Interchange.AccountsPayable,
		InventoryAsset:  d.cfg.Interchange.InventoryAsset,
		CostOfGoodsSold: d.cfg.Interchange.CostOfGoodsSold,
		Income:          d.cfg.Interchange.Income,
	}
}

func ingestCmd() *cobra.Command {
	var (
		source   string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest one or more export files into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			defer d.close()

			var archive storage.Archive
			if d.cfg.Archive.Dir != "" {
				archive, err = storage.New(&storage.Config{LocalPath: d.cfg.Archive.Dir})
				if err != nil {
					return err
				}
			}

			svc := ingestservice.NewService(d.repo, d.logger)
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				result, err := svc.Ingest(cmd.Context(), ingestservice.IngestRequest{
					Filename:   filepath.Base(path),
					Data:       data,
					SourceName: source,
					Currency:   currency,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if result.Duplicate {
					fmt.Printf("%s: duplicate of batch %s (processed=%v)\n",
						path, result.BatchID, result.PriorProcessed)
					continue
				}

				if archive != nil {
					if _, err := archive.Store(cmd.Context(), result.BatchID,
						filepath.Base(path), "", bytes.NewReader(data)); err != nil {
						d.logger.Warn("failed to archive source file", "error", err, "file", path)
					}
				}
				fmt.Printf("%s: %s, %d rows (bills=%d lines=%d invoices=%d bank=%d skipped=%d)\n",
					path, result.Format, result.RowCount,
					result.Stats.BillsCreated, result.Stats.LinesCreated,
					result.Stats.InvoicesUpserted, result.Stats.BankCreated,
					result.Stats.BillsSkipped+result.Stats.BankSkipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source system name (default: derived from format)")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO-4217 currency for projected transactions (default: USD)")
	return cmd
}

func exportBillsCmd() *cobra.Command {
	var (
		out    string
		rawIDs []string
	)

	cmd := &cobra.Command{
		Use:   "export-bills",
		Short: "Write bills as an IIF interchange file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			defer d.close()

			ids := make([]uuid.UUID, 0, len(rawIDs))
			for _, raw := range rawIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid bill id %q: %w", raw, err)
				}
				ids = append(ids, id)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			svc := interchange.NewService(d.repo, d.accounts(), d.logger)
			export, err := svc.ExportBills(cmd.Context(), f, ids)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d bills (total %s) to %s\n",
				len(export.TransactionIDs), export.TotalAmount.StringFixed(2), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "bills.iif", "output file path")
	cmd.Flags().StringSliceVar(&rawIDs, "ids", nil, "bill ids to export (default: all)")
	return cmd
}

func exportItemsCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-items",
		Short: "Write the inventory catalog as an IIF interchange file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			defer d.close()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			svc := interchange.NewService(d.repo, d.accounts(), d.logger)
			export, err := svc.ExportItems(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d items to %s\n", len(export.TransactionIDs), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "items.iif", "output file path")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			d.close()
			return nil
		},
	}
}
