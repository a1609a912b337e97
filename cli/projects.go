// ABOUTME: Mapping table listing command
// ABOUTME: Dumps project mappings, with live Toggl names when the remote is reachable
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/db"
)

// ListProjectsCommand dumps the mapping table. Toggl enrichment is best
// effort: when the remote is unreachable or rate limited the local rows
// still print, just without live names.
func ListProjectsCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list-projects", flag.ExitOnError)
	includeArchived := fs.Bool("all", false, "Include archived mappings")
	fs.Parse(args)

	mappings, err := db.ListMappings(database, *includeArchived)
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		fmt.Println("No project mappings yet. Run 'taskbridge sync' first.")
		return nil
	}

	clientNames := map[int64]string{}
	projectNames := map[int64]string{}
	if tracker, err := newToggl(cfg); err == nil {
		ctx := context.Background()
		if clients, err := tracker.ListClients(ctx); err == nil {
			for _, c := range clients {
				clientNames[c.ID] = c.Name
			}
		} else {
			fmt.Printf("⚠ Toggl unreachable (%v), showing local data only\n", err)
		}
		if projects, err := tracker.ListProjects(ctx, nil); err == nil {
			for _, p := range projects {
				projectNames[p.ID] = p.Name
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tCLIENT\tTOGGL PROJECT\tSTATUS")
	fmt.Fprintln(w, "------\t------\t-------------\t------")
	for _, m := range mappings {
		client := "-"
		if m.TargetClientID != nil {
			client = fmt.Sprintf("#%d", *m.TargetClientID)
			if name, ok := clientNames[*m.TargetClientID]; ok {
				client = name
			}
		}
		project := "-"
		if m.TargetProjectID != nil {
			project = fmt.Sprintf("#%d", *m.TargetProjectID)
			if name, ok := projectNames[*m.TargetProjectID]; ok {
				project = name
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.SourceName, client, project, m.Status)
	}
	return w.Flush()
}
