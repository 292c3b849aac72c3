package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/github"
)

var githubCmd = &cobra.Command{
	Use:     "github",
	Short:   "Manage GitHub integrations",
	GroupID: "github",
}

var githubStatusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show the GitHub integration status for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID := args[0]

		fetcher, ok := diagramClient.(github.Fetcher)
		if !ok {
			return fmt.Errorf("backend client does not support integration lookups")
		}
		// The cache lives only for this invocation, so its TTL never kicks
		// in here; it is used for its retry/backoff and 404-as-unlinked
		// handling. Cross-request caching happens in the server.
		cache := github.NewCache(fetcher)
		integ, err := cache.GetStatus(context.Background(), projectID)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]any{"integration": integ, "state": cache.StateFor(projectID)})
			return nil
		}
		printIntegration(integ)
		return nil
	},
}

var githubRefreshCmd = &cobra.Command{
	Use:   "refresh <project-id>",
	Short: "Re-fetch the integration status, bypassing any cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID := args[0]

		integ, err := diagramClient.GetIntegration(context.Background(), projectID)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && (apiErr.StatusCode == 404 || apiErr.StatusCode == 403) {
				integ = nil
			} else {
				return err
			}
		}
		if jsonOutput {
			printJSON(map[string]any{"integration": integ})
			return nil
		}
		printIntegration(integ)
		return nil
	},
}

var githubSyncCmd = &cobra.Command{
	Use:   "sync <project-id>",
	Short: "Sync commits from the linked repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := diagramClient.SyncCommits(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(result)
			return nil
		}
		printSyncResult(result)
		return nil
	},
}

var githubLinkCmd = &cobra.Command{
	Use:   "link <project-id> <owner/repo>",
	Short: "Link a project to a GitHub repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		ghToken, _ := cmd.Flags().GetString("github-token")

		integ, err := diagramClient.CreateIntegration(context.Background(), &client.CreateIntegrationRequest{
			ProjectID:  args[0],
			Repository: args[1],
			Branch:     branch,
			Token:      ghToken,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(integ)
			return nil
		}
		fmt.Printf("linked %s to %s\n", integ.ProjectID, integ.Repository)
		return nil
	},
}

var githubUnlinkCmd = &cobra.Command{
	Use:   "unlink <integration-id>",
	Short: "Remove a GitHub integration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := diagramClient.DeleteIntegration(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("integration %s removed\n", args[0])
		return nil
	},
}

var githubListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all GitHub integrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		integs, err := diagramClient.ListIntegrations(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(integs)
			return nil
		}
		if len(integs) == 0 {
			fmt.Println("no integrations configured")
			return nil
		}
		for _, integ := range integs {
			active := " "
			if integ.Active {
				active = "*"
			}
			fmt.Printf("%s %s  %s -> %s\n", active, integ.ID, integ.ProjectID, integ.Repository)
		}
		return nil
	},
}

func init() {
	githubLinkCmd.Flags().String("branch", "", "branch to sync (defaults to the repository default)")
	githubLinkCmd.Flags().String("github-token", "", "GitHub access token for private repositories")

	githubCmd.AddCommand(githubStatusCmd)
	githubCmd.AddCommand(githubRefreshCmd)
	githubCmd.AddCommand(githubSyncCmd)
	githubCmd.AddCommand(githubLinkCmd)
	githubCmd.AddCommand(githubUnlinkCmd)
	githubCmd.AddCommand(githubListCmd)
}
