package cli

import (
	"context"
	"fmt"
	"os"

	"esn-monitor/backend/app/db"
	"esn-monitor/backend/app/repo"
	"esn-monitor/backend/app/services"
	"esn-monitor/backend/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage agent keys directly in the backend database",
}

var keySeedCmd = &cobra.Command{
	Use:   "seed [server-id]",
	Short: "Create an agent key, creating region \"test\" and the server if missing",
	Long: `seed is the bootstrap path for a fresh install. It ensures region "test"
and a minimal server row exist, stores a new key hash, and prints the
plaintext key once. The key cannot be recovered later.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serverID := int64(1)
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			serverID = id
		}
		keys, closeDB, err := openKeyService()
		if err != nil {
			return err
		}
		defer closeDB()
		issued, err := keys.Seed(cmd.Context(), serverID)
		if err != nil {
			return fmt.Errorf("failed to seed key: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Agent key for server %d (id %s):\n%s\n", issued.ServerID, issued.ID, issued.Token)
		fmt.Fprintln(out, "Store it now, it will not be shown again.")
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:   "list <server-id>",
	Short: "List a server's agent keys (hash prefix only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		keys, closeDB, err := openKeyService()
		if err != nil {
			return err
		}
		defer closeDB()
		list, err := keys.List(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(list))
		return nil
	},
}

var keyRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an agent key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, fmt.Sprintf("Revoke key %s?", args[0])) {
			return nil
		}
		keys, closeDB, err := openKeyService()
		if err != nil {
			return err
		}
		defer closeDB()
		if err := keys.Revoke(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to revoke key: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Key %s revoked.\n", args[0])
		return nil
	},
}

// keyDB is replaceable in tests.
var keyDB = func(ctx context.Context) (*gorm.DB, error) {
	cfg, err := config.Load(backendConfig)
	if err != nil {
		return nil, err
	}
	gdb, err := db.Connect(db.Config{Driver: cfg.DB.Driver, Host: cfg.DB.Host, Port: cfg.DB.Port, User: cfg.DB.User, Password: cfg.DB.Pass, DBName: cfg.DB.Name, Path: cfg.DB.Path})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

func openKeyService() (*services.KeyService, func(), error) {
	gdb, err := keyDB(context.Background())
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	svc := services.NewKeyService(repo.NewAgentKeyRepository(gdb), repo.NewServerRepository(gdb), zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
	return svc, closeDB, nil
}

func init() {
	keyCmd.AddCommand(keySeedCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyRevokeCmd)
	rootCmd.AddCommand(keyCmd)
}
