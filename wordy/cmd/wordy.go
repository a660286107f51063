// Admin command line for a Wordy deployment: schema migration, content
// reconciliation, revision dumps and dev tokens.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"wordy/wordy/config"
	"wordy/wordy/middlewares"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/reconcile"
	"wordy/wordy/services/revisions"
	"wordy/wordy/services/writequeue"
	"wordy/wordy/sources/db"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfg     config.Config
	timeout time.Duration
	fix     bool
	minAge  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "wordy",
	Short: "Wordy administration",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logging.InitLogger(cfg.LogDir)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		// NewDatabase migrates on connect
		database, err := db.NewDatabase(ctx, cfg)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer database.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare revision rows with stored content",
	Long: "Lists revisions whose content file is missing and content files no revision\n" +
		"points at. With --fix the orphan files are removed; rows are never touched.\n" +
		"Files younger than --min-age are skipped, and every orphan is checked\n" +
		"against the database again right before it is removed, so the scan is\n" +
		"safe to run while the server is writing.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		database, err := db.NewDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		store, err := storage.NewContentStore(ctx, cfg)
		if err != nil {
			return err
		}

		scanner := reconcile.NewScanner(database.DB, store)
		scanner.MinAge = minAge
		report, err := scanner.Scan(ctx, fix)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !fix && !report.Clean() {
			return fmt.Errorf("%d revisions without content, %d orphan files",
				len(report.MissingContent), len(report.OrphanFiles))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <revision-id>",
	Short: "Print the stored content of a revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid revision id %q", args[0])
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		database, err := db.NewDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		store, err := storage.NewContentStore(ctx, cfg)
		if err != nil {
			return err
		}

		svc := revisions.NewService(database.DB, store, writequeue.NewKeyedMutex(), realtime.Nop{})
		data, err := svc.ReadRevisionContent(ctx, id)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Print a bearer token for username, creating the user if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(args[0])
		if username == "" {
			return fmt.Errorf("username cannot be blank")
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		database, err := db.NewDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		users := dao.NewUserDAO(database.DB)
		user, err := users.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			user, err = users.CreateUser(ctx, username, username+"@example.com", nil, nil)
			if err != nil {
				return err
			}
		}
		token, err := middlewares.IssueToken(cfg, user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the command")
	reconcileCmd.Flags().BoolVar(&fix, "fix", false, "Remove orphan content files")
	reconcileCmd.Flags().DurationVar(&minAge, "min-age", reconcile.DefaultMinAge, "Ignore content files modified more recently than this")
	rootCmd.AddCommand(migrateCmd, reconcileCmd, showCmd, tokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
