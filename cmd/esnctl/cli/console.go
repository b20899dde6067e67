package cli

import (
	"esn-monitor/cmd/esnctl/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive terminal console",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(ui.NewRootModel(client, serverURL, username), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
