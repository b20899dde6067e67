package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Inspect monitored servers",
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List servers with their region and critical alert flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := client.ListServers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list servers: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(servers))
		return nil
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "List or delete alerts",
}

var alertListCmd = &cobra.Command{
	Use:   "list <server-id>",
	Short: "List active alerts of a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		alerts, err := client.ListAlerts(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list alerts: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(alerts))
		return nil
	},
}

var alertDeleteCmd = &cobra.Command{
	Use:   "delete <server-id> <filename>",
	Short: "Queue a DELETE_ALERT command for the server's agent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Delete alert file %q on server %d?", args[1], id)) {
			return nil
		}
		q, err := client.DeleteAlert(cmd.Context(), id, args[1])
		if err != nil {
			return fmt.Errorf("failed to delete alert: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Command %d queued.\n", q.CommandID)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	serverCmd.AddCommand(serverListCmd)
	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertDeleteCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(alertCmd)
}
