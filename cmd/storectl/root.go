package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"storefront/config"
	"storefront/database"
	"storefront/logging"
	"storefront/store"
	"storefront/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const defaultRetention = 720 * time.Hour

type rootOptions struct {
	DatabaseURL string
	LogLevel    string
}

func (o *rootOptions) open() (*gorm.DB, error) {
	dsn := o.DatabaseURL
	if dsn == "" {
		return database.Connect()
	}
	return database.Open(dsn)
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), o.LogLevel)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Storefront maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "database DSN (sqlite://path for SQLite)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", config.GetEnv("LOG_LEVEL", "info"), "log level (debug|info|warn|error)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newPruneCartsCommand(opts))
	cmd.AddCommand(newTokenCommand())
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if seed {
				if err := database.SeedCatalog(db); err != nil {
					return fmt.Errorf("seed catalog: %w", err)
				}
			}
			opts.logger(cmd).Info("schema up to date", "seeded", seed)
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert the demo catalog when the products table is empty")
	return cmd
}

func newPruneCartsCommand(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune-carts",
		Short: "Delete abandoned anonymous and empty carts",
		Long: `Delete carts that have not been touched for --older-than.

Anonymous carts are removed with their items. Carts of signed-in users are
removed only when they are empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			db, err := opts.open()
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			cutoff := time.Now().Add(-olderThan)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would prune carts last updated before %s\n", cutoff.UTC().Format(time.RFC3339))
				return nil
			}

			carts := store.NewCartStore(db, store.NewSessionHasher(os.Getenv("SESSION_HASH_KEY")))
			n, err := carts.PruneAbandonedCarts(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("prune carts: %w", err)
			}
			opts.logger(cmd).Info("abandoned carts pruned", "count", n, "cutoff", cutoff)
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d carts\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", config.GetEnvDuration("CART_RETENTION", defaultRetention), "retention window (default from CART_RETENTION)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the cutoff without deleting anything")
	return cmd
}

// newTokenCommand mints a bearer token signed with JWT_SECRET, for smoke
// tests and admin scripts.
func newTokenCommand() *cobra.Command {
	var email, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a signed bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "customer" && role != "admin" {
				return fmt.Errorf("invalid role %q: must be customer or admin", role)
			}
			tok, err := utils.GenerateToken(args[0], email, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", "customer", "role claim (customer|admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
