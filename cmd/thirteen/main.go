package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "thirteen",
		Short: "Lobby server for the Thirteen card game",
		Long: `Thirteen runs the lobby server for four-player Thirteen.

Players create a lobby, share its four-letter code, and once four
are seated the host deals thirteen cards to each of them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		dealCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
