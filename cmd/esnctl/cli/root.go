package cli

import (
	"fmt"
	"os"

	"esn-monitor/cmd/esnctl/api"
	"esn-monitor/cmd/esnctl/output"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat  string
	serverURL     string
	username      string
	password      string
	backendConfig string
	yesFlag       bool

	// Shared state set during PersistentPreRun
	client    *api.Client
	formatter output.Formatter
)

var rootCmd = &cobra.Command{
	Use:   "esnctl",
	Short: "ESN monitor admin CLI: servers, alerts, commands and agent keys",
	Long: `esnctl talks to the ESN monitor admin API to inspect servers and alerts
and to queue commands for agents. The key subcommands work directly on the
backend database and need the backend config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if client == nil {
			client = api.NewClient(serverURL, username, password)
		}
		if formatter == nil {
			formatter = output.NewFormatter(outputFormat)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// SetClient allows tests to inject a client pointed at a test server.
func SetClient(c *api.Client) { client = c }

// SetFormatter allows tests to inject a formatter.
func SetFormatter(f output.Formatter) { formatter = f }

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command { return rootCmd }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", envOr("ESNCTL_OUTPUT", "table"), "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ESNCTL_SERVER", "http://127.0.0.1:8000"), "backend base URL")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", envOr("ESNCTL_USERNAME", "admin"), "admin username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", os.Getenv("ESNCTL_PASSWORD"), "admin password (or ESNCTL_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&backendConfig, "backend-config", envOr("ESNCTL_BACKEND_CONFIG", "backend/config/config.yaml"), "backend config file, used by key commands")
	rootCmd.PersistentFlags().BoolVar(&yesFlag, "yes", false, "skip confirmation prompts for destructive operations")
}
