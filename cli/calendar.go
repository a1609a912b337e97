// ABOUTME: Calendar import command
// ABOUTME: Pulls recent meetings into the timer session history
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/iross/taskbridge/cal"
)

// CalendarCommand imports recent attended meetings as closed timer
// sessions. Requires a stored Google OAuth token.
func CalendarCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	days := fs.Int("days", 7, "How many days back to import")
	fs.Parse(args)

	token, err := cal.LoadToken()
	if err != nil {
		return fmt.Errorf("%w\nStore a calendar OAuth token at %s first", err, cal.TokenPath())
	}

	service, source, err := cal.NewService(context.Background(), token)
	if err != nil {
		return err
	}

	fmt.Printf("→ Importing meetings from the last %d days...\n", *days)

	importer := cal.NewImporter(database, service)
	stats, err := importer.Import(*days)
	if err != nil {
		return err
	}

	if err := cal.PersistIfRefreshed(source, token); err != nil {
		fmt.Printf("⚠ Could not store refreshed google token: %v\n", err)
	}

	fmt.Printf("✓ Fetched %d events, imported %d meetings\n", stats.Fetched, stats.Imported)
	if stats.Duplicates > 0 {
		fmt.Printf("  → %d already imported\n", stats.Duplicates)
	}
	for reason, count := range stats.Skipped {
		fmt.Printf("  → Skipped %d (%s)\n", count, reason)
	}
	return nil
}
