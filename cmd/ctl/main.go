// Command ctl is the administrative CLI for cashkeep: the same ingest,
// category-sync, and migration operations the HTTP admin endpoints expose,
// for use from a cron job or an operator's shell rather than curl.
// Subcommands follow the flag.NewFlagSet-per-command shape this pack uses
// for its own CLIs rather than pulling in a cobra/urfave dependency neither
// the teacher nor any example repo in this pack actually imports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
	"github.com/cashkeep/cashkeep/internal/platform/config"
	"github.com/cashkeep/cashkeep/internal/repositories/database/sqlite"
	"github.com/cashkeep/cashkeep/internal/upstream"
	"github.com/cashkeep/cashkeep/pkg/database"
)

const (
	exitUsage       = 1
	exitOperational = 2
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(exitUsage)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(logger, cfg, os.Args[2:])
	case "categories":
		runCategories(logger, cfg, os.Args[2:])
	case "reconcile":
		runReconcile(logger, cfg)
	case "db":
		runDB(logger, cfg, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Println("cashkeep ctl")
	fmt.Println("\nUsage:")
	fmt.Println("  ctl ingest <source> --delta | --backfill --months N | --from-csv PATH [--account NAME]")
	fmt.Println("  ctl categories sync-<source>")
	fmt.Println("  ctl reconcile")
	fmt.Println("  ctl db migrate | db reset [--force] [--no-populate]")
}

func openStore(cfg *config.Config) (*sqlite.Store, func(), error) {
	db, err := database.Open(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewStore(db), func() { database.Close(db) }, nil
}

func runIngest(logger *slog.Logger, cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ctl ingest <source> --delta | --backfill --months N | --from-csv PATH")
		os.Exit(exitUsage)
	}
	source := args[0]

	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	delta := fs.Bool("delta", false, "run a delta ingest against the source's last cursor")
	backfill := fs.Bool("backfill", false, "run a backfill ingest")
	months := fs.Int("months", 3, "months to backfill")
	fromCSV := fs.String("from-csv", "", "path to a CSV export to ingest instead of the HTTP source")
	account := fs.String("account", "", "account name to attach to CSV rows (required with --from-csv)")
	fs.Parse(args[1:])

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(exitOperational)
	}
	defer closeStore()

	ingestor := services.NewIngestor(store.Repos, store)
	ctx := context.Background()

	var src upstream.Source
	switch {
	case *fromCSV != "":
		if *account == "" {
			fmt.Fprintln(os.Stderr, "--account is required with --from-csv")
			os.Exit(exitUsage)
		}
		f, err := os.Open(*fromCSV)
		if err != nil {
			logger.Error("open csv", "error", err)
			os.Exit(exitOperational)
		}
		defer f.Close()
		csvSrc, err := upstream.NewCSVSource(f, *account)
		if err != nil {
			logger.Error("parse csv", "error", err)
			os.Exit(exitOperational)
		}
		src = csvSrc
	case *delta, *backfill:
		if cfg.UpstreamBaseURL == "" {
			fmt.Fprintln(os.Stderr, "UPSTREAM_BASE_URL is not configured")
			os.Exit(exitUsage)
		}
		src = upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamToken)
	default:
		fmt.Fprintln(os.Stderr, "one of --delta, --backfill, or --from-csv is required")
		os.Exit(exitUsage)
	}

	var result *services.IngestResult
	if *fromCSV != "" || *backfill {
		result, err = ingestor.RunBackfill(ctx, source, src, *months)
	} else {
		result, err = ingestor.RunDelta(ctx, source, src)
	}
	if err != nil {
		logger.Error("ingest failed", "source", source, "error", err)
		os.Exit(exitOperational)
	}

	logger.Info("ingest complete", "source", source, "rows_upserted", result.RowsUpserted, "status", result.Status)
	if result.Status != domain.IngestSuccess {
		os.Exit(exitOperational)
	}
}

func runCategories(logger *slog.Logger, cfg *config.Config, args []string) {
	if len(args) < 1 || len(args[0]) < len("sync-") || args[0][:len("sync-")] != "sync-" {
		fmt.Fprintln(os.Stderr, "usage: ctl categories sync-<source>")
		os.Exit(exitUsage)
	}
	source := args[0][len("sync-"):]

	if cfg.UpstreamBaseURL == "" {
		fmt.Fprintln(os.Stderr, "UPSTREAM_BASE_URL is not configured")
		os.Exit(exitUsage)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(exitOperational)
	}
	defer closeStore()

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamToken)
	ctx := context.Background()

	raw, err := client.Categories(ctx)
	if err != nil {
		logger.Error("fetch categories", "source", source, "error", err)
		os.Exit(exitOperational)
	}
	converted := make([]services.RawCategory, len(raw))
	for i, r := range raw {
		converted[i] = services.RawCategory{ExternalID: r.ExternalID, Name: r.Name, ParentID: r.ParentID}
	}

	mapper := services.NewCategoryMapper(store.Repos)
	if err := mapper.Sync(ctx, source, converted); err != nil {
		logger.Error("sync categories", "source", source, "error", err)
		os.Exit(exitOperational)
	}
	logger.Info("categories synced", "source", source, "count", len(converted))
}

// runReconcile reports every active account's operator-declared anchor
// against the balance the Anchor Resolver derives from it as of today,
// the same computation the forecast pipeline relies on, surfaced here so
// an operator can catch a stale or missing anchor before it skews a
// forecast.
func runReconcile(logger *slog.Logger, cfg *config.Config) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(exitOperational)
	}
	defer closeStore()

	ctx := context.Background()
	resolver := services.NewAnchorResolver(store.Repos)
	accounts, err := store.Repos.Accounts.ListAccounts(ctx, true)
	if err != nil {
		logger.Error("list accounts", "error", err)
		os.Exit(exitOperational)
	}

	todayDay := domain.NewDay(time.Now())
	exitCode := 0
	for _, acct := range accounts {
		anchor, err := store.Repos.Anchors.Get(ctx, acct.AccountID)
		if err != nil {
			fmt.Printf("%s (%s): no anchor set\n", acct.Name, acct.AccountID)
			exitCode = exitOperational
			continue
		}
		balance, err := resolver.Opening(ctx, todayDay, []string{acct.AccountID})
		if err != nil {
			logger.Error("compute opening balance", "account_id", acct.AccountID, "error", err)
			exitCode = exitOperational
			continue
		}
		fmt.Printf("%s (%s): anchor %s = %d cents, derived today = %d cents\n",
			acct.Name, acct.AccountID, anchor.AnchorDate.String(), anchor.AnchorBalanceCents, balance)
	}
	os.Exit(exitCode)
}

func runDB(logger *slog.Logger, cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ctl db migrate | db reset [--force]")
		os.Exit(exitUsage)
	}

	switch args[0] {
	case "migrate":
		db, err := database.Open(context.Background(), cfg.DBPath)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(exitOperational)
		}
		defer database.Close(db)
		if err := database.RunMigrations(db, "file://migrations"); err != nil {
			logger.Error("run migrations", "error", err)
			os.Exit(exitOperational)
		}
		logger.Info("migrations applied")

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ExitOnError)
		force := fs.Bool("force", false, "skip the confirmation check")
		fs.Bool("no-populate", false, "accepted and ignored: reset never re-ingests, the database is always left empty")
		fs.Parse(args[1:])

		if !*force {
			fmt.Fprintln(os.Stderr, "refusing to reset the database without --force")
			os.Exit(exitUsage)
		}
		if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
			logger.Error("remove database file", "error", err)
			os.Exit(exitOperational)
		}
		db, err := database.Open(context.Background(), cfg.DBPath)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(exitOperational)
		}
		defer database.Close(db)
		if err := database.RunMigrations(db, "file://migrations"); err != nil {
			logger.Error("run migrations", "error", err)
			os.Exit(exitOperational)
		}
		logger.Info("database reset")

	default:
		fmt.Fprintln(os.Stderr, "usage: ctl db migrate | db reset [--force]")
		os.Exit(exitUsage)
	}
}
