package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"esn-monitor/cmd/esnctl/api"

	"github.com/spf13/cobra"
)

var (
	commandStatus string
	commandTTL    int
)

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Queue and inspect agent commands",
}

var commandSendCmd = &cobra.Command{
	Use:   "send <server-id> <DELETE_ALERT|CUSTOM> [payload-json]",
	Short: "Queue a command for a server",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		req := api.SendCommandRequest{ServerID: id, Type: strings.ToUpper(args[1]), TTLSeconds: commandTTL}
		if len(args) == 3 {
			if !json.Valid([]byte(args[2])) {
				return fmt.Errorf("payload is not valid JSON")
			}
			req.Payload = json.RawMessage(args[2])
		}
		q, err := client.SendCommand(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to send command: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Command %d queued.\n", q.CommandID)
		return nil
	},
}

var commandListCmd = &cobra.Command{
	Use:   "list <server-id>",
	Short: "List a server's command queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cmds, err := client.ListCommands(cmd.Context(), id, commandStatus)
		if err != nil {
			return fmt.Errorf("failed to list commands: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(cmds))
		return nil
	},
}

var commandGetCmd = &cobra.Command{
	Use:   "get <command-id>",
	Short: "Show a command and every result reported for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		detail, err := client.GetCommand(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get command: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(detail.Command))
		if len(detail.Results) > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), formatter.Format(detail.Results))
		}
		return nil
	},
}

// confirm asks on stdin unless --yes was given.
func confirm(cmd *cobra.Command, question string) bool {
	if yesFlag {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Scan()
	if strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return false
	}
	return true
}

func init() {
	commandSendCmd.Flags().IntVar(&commandTTL, "ttl", 0, "seconds until the command expires (stored only)")
	commandListCmd.Flags().StringVar(&commandStatus, "status", "", "filter by status: pending, sent, done, failed")
	commandCmd.AddCommand(commandSendCmd)
	commandCmd.AddCommand(commandListCmd)
	commandCmd.AddCommand(commandGetCmd)
	rootCmd.AddCommand(commandCmd)
}
