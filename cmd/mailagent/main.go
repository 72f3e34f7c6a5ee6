package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-agent/internal/model"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "mailagent",
		Short:         "Poll a mailbox, classify new mail and apply processing rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath, "path to the YAML config file")

	cmd.AddCommand(
		runCmd(&configPath),
		onceCmd(&configPath),
		rulesCmd(&configPath),
		historyCmd(&configPath),
		credentialsCmd(&configPath),
	)
	return cmd
}
