// ABOUTME: Sync log maintenance commands
// ABOUTME: Shows recent audit entries and prunes old ones
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/iross/taskbridge/db"
)

// LogCommand prints recent sync log entries, newest first.
func LogCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum entries")
	fs.Parse(args)

	entries, err := db.ListSyncLog(database, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Sync log is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tDETAILS")
	fmt.Fprintln(w, "----\t------\t-------")
	for _, e := range entries {
		details := e.Details
		if details == "" {
			details = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Action, details)
	}
	return w.Flush()
}

// PruneLogCommand deletes old audit entries.
func PruneLogCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("prune-log", flag.ExitOnError)
	days := fs.Int("days", 90, "Delete entries older than this many days")
	fs.Parse(args)

	if *days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	deleted, err := db.PruneSyncLog(database, *days)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Pruned %d log entr%s older than %d days\n", deleted, pluralEntries(deleted), *days)
	return nil
}

func pluralEntries(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
