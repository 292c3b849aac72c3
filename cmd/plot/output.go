package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printIntegration(integ *model.Integration) {
	if integ == nil {
		fmt.Println("no GitHub integration configured")
		return
	}
	fmt.Printf("ID:          %s\n", integ.ID)
	fmt.Printf("Project:     %s\n", integ.ProjectID)
	fmt.Printf("Repository:  %s\n", integ.Repository)
	if integ.Branch != "" {
		fmt.Printf("Branch:      %s\n", integ.Branch)
	}
	fmt.Printf("Active:      %t\n", integ.Active)
	if integ.LastSyncAt != nil {
		fmt.Printf("Last Sync:   %s\n", integ.LastSyncAt.Format("2006-01-02 15:04:05"))
	}
	if !integ.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", integ.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printSyncResult(result *model.SyncResult) {
	fmt.Printf("synced %d of %d commits\n", result.SyncedCount, result.TotalCommits)
	if len(result.Commits) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHA\tAUTHOR\tMESSAGE")
	for _, c := range result.Commits {
		sha := c.SHA
		if len(sha) > 8 {
			sha = sha[:8]
		}
		msg := c.Message
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", sha, c.Author, msg)
	}
	w.Flush()
}

// printDropped warns about elements the validator excluded from a diagram.
func printDropped(dropped []model.DroppedElement) {
	for _, d := range dropped {
		line := fmt.Sprintf("warning: dropped %s %q: %s", d.Collection, d.ID, d.Reason)
		fmt.Fprintln(os.Stderr, ui.RenderWarn(line))
	}
}
