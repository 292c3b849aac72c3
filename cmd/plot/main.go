package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/ui"
)

var (
	backendURL   string
	backendToken string
	jsonOutput   bool
	noColor      bool

	diagramClient client.DiagramClient
)

func defaultBackendURL() string {
	if s := os.Getenv("PLOTD_BACKEND_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("PLOTD_BACKEND_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "plot <command>",
	Short: "CLI client for the diagram service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		diagramClient = client.NewHTTPClient(backendURL, backendToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if diagramClient != nil {
			diagramClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", defaultBackendURL(), "diagram backend URL")
	rootCmd.PersistentFlags().StringVar(&backendToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "diagrams", Title: "Diagrams:"},
		&cobra.Group{ID: "github", Title: "GitHub:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Diagrams
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// GitHub
	rootCmd.AddCommand(githubCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
