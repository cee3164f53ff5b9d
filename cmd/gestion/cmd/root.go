package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gestion",
	Short: "Gestion is the client management backend",
	Long: `Backend services for the client management application: the
authentication server, the file upload server, and user administration.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
