// ABOUTME: Time report command
// ABOUTME: Summarizes recent Toggl time entries with mapped project names
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/db"
)

// ReportCommand prints tracked time over the last N days, straight from
// Toggl. Project names come from the mapping store when a pair is known.
func ReportCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	days := fs.Int("days", 7, "How many days back to report")
	fs.Parse(args)

	if *days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	tracker, err := newToggl(cfg)
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	entries, err := tracker.TimeEntries(context.Background(), start, end, nil)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No time entries in the last %d days\n", *days)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tDESCRIPTION\tPROJECT\tDURATION")
	fmt.Fprintln(w, "-----\t-----------\t-------\t--------")

	var total time.Duration
	for _, e := range entries {
		project := "-"
		if e.ProjectID != nil {
			project = fmt.Sprintf("#%d", *e.ProjectID)
			mapping, err := db.GetMappingByTargetProjectID(database, *e.ProjectID)
			if err != nil {
				return err
			}
			if mapping != nil {
				project = mapping.SourceName
			}
		}

		duration := "running"
		if !e.Running() {
			d := time.Duration(e.Duration) * time.Second
			total += d
			duration = d.Round(time.Second).String()
		}

		started := e.Start
		if t, err := time.Parse(time.RFC3339, e.Start); err == nil {
			started = t.Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", started, e.Description, project, duration)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nTotal: %s over %d days\n", total.Round(time.Second), *days)
	return nil
}
