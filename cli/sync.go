// ABOUTME: Sync command wiring
// ABOUTME: Builds the adapters and engine, runs analyze/preview/confirm/apply
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/parser"
	"github.com/iross/taskbridge/providers"
	"github.com/iross/taskbridge/remote"
	"github.com/iross/taskbridge/syncer"
	"github.com/iross/taskbridge/toggl"
)

// newToggl builds the Toggl API handle with its read cache. A cache that
// fails to open is not fatal, the API just runs uncached.
func newToggl(cfg *config.Config) (*toggl.API, error) {
	if cfg.TogglToken == "" {
		return nil, fmt.Errorf("toggl API token not configured. Run 'taskbridge config' first")
	}

	cache, err := toggl.OpenCache(cfg.CacheDir)
	if err != nil {
		fmt.Printf("⚠ Cache unavailable (%v), continuing without it\n", err)
		cache = nil
	}

	return toggl.New(cfg.TogglToken, cfg.TogglURL, cache), nil
}

func activeConvention(cfg *config.Config) (parser.Convention, error) {
	convention := parser.Convention(cfg.Convention)
	if !convention.Valid() {
		return "", fmt.Errorf("unknown naming convention %q in config", cfg.Convention)
	}
	return convention, nil
}

// SyncCommand reconciles the task provider with Toggl.
func SyncCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show pending actions without applying them")
	yes := fs.Bool("yes", false, "Apply without asking for confirmation")
	fs.Parse(args)

	provider, err := providers.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	tracker, err := newToggl(cfg)
	if err != nil {
		return err
	}
	convention, err := activeConvention(cfg)
	if err != nil {
		return err
	}

	engine := syncer.New(database, provider, tracker, convention)
	ctx := context.Background()

	fmt.Printf("→ Analyzing %s and toggl...\n", provider.Name())
	diff, err := engine.Analyze(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return fmt.Errorf("rate limited, running in degraded mode; local commands still work: %w", err)
		}
		return err
	}

	fmt.Print(diff.RenderPreview())

	if diff.PendingActions() == 0 {
		return nil
	}
	if *dryRun {
		fmt.Println("Dry run, nothing applied.")
		return nil
	}

	if !*yes && !confirm("Proceed with sync?") {
		fmt.Println("Sync cancelled.")
		return nil
	}

	res, err := engine.Apply(ctx, diff)
	fmt.Printf("\nSync summary: %s\n", res)
	if err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return fmt.Errorf("rate limited mid-apply; completed actions stand, re-run sync to finish: %w", err)
		}
		return err
	}

	fmt.Println("✓ Sync completed")
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
