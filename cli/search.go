// ABOUTME: Task search command
// ABOUTME: Free-text query against the configured task provider
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/providers"
)

// SearchCommand lists provider tasks matching a query.
func SearchCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return fmt.Errorf("usage: taskbridge search <query>")
	}

	provider, err := providers.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	issues, err := provider.ListIssues(context.Background(), providers.IssueFilter{Query: query, Limit: *limit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(issues) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPROJECT")
	fmt.Fprintln(w, "--\t-----\t-------")
	for _, issue := range issues {
		project := issue.ProjectID
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", issue.ID, issue.Title, project)
	}
	return w.Flush()
}
