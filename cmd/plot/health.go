package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check backend connectivity",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := diagramClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]string{"status": status})
			return nil
		}
		fmt.Printf("backend: %s\n", status)
		return nil
	},
}
