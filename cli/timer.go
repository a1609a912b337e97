// ABOUTME: Timer CLI commands
// ABOUTME: start/stop/status delegate to the timer controller
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/providers"
	"github.com/iross/taskbridge/timer"
)

func newController(database *sql.DB, cfg *config.Config) (*timer.Controller, error) {
	provider, err := providers.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	tracker, err := newToggl(cfg)
	if err != nil {
		return nil, err
	}
	return timer.New(database, provider, tracker), nil
}

// StartCommand starts tracking, optionally tied to a task.
func StartCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	description := fs.String("description", "", "Timer description (defaults to the task title)")
	fs.Parse(args)

	taskID := ""
	if fs.NArg() > 0 {
		taskID = fs.Arg(0)
	}

	ctrl, err := newController(database, cfg)
	if err != nil {
		return err
	}

	session, err := ctrl.Start(context.Background(), taskID, *description)
	if err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}

	fmt.Printf("✓ Timer started: %s\n", session.Description)
	if session.ProjectName != "" {
		fmt.Printf("  Project: %s\n", session.ProjectName)
	}
	if session.TaskID != "" {
		fmt.Printf("  Task: %s\n", session.TaskID)
	}
	return nil
}

// StopCommand stops the running timer, if any.
func StopCommand(database *sql.DB, cfg *config.Config, args []string) error {
	ctrl, err := newController(database, cfg)
	if err != nil {
		return err
	}

	session, err := ctrl.Stop(context.Background())
	if err != nil {
		return fmt.Errorf("failed to stop timer: %w", err)
	}
	if session == nil {
		fmt.Println("No timer running")
		return nil
	}

	fmt.Printf("✓ Timer stopped: %s (%s)\n", session.Description, session.Duration().Round(time.Second))
	return nil
}

// StatusCommand shows the open session. Purely local, so it works even
// when the remote backends are unreachable or unconfigured.
func StatusCommand(database *sql.DB, cfg *config.Config, args []string) error {
	ctrl := timer.New(database, nil, nil)

	session, err := ctrl.Status()
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Println("No timer running")
		return nil
	}

	fmt.Printf("Timer running: %s (%s)\n", session.Description, session.Duration().Round(time.Second))
	if session.ProjectName != "" {
		fmt.Printf("  Project: %s\n", session.ProjectName)
	}
	if session.TaskID != "" {
		fmt.Printf("  Task: %s\n", session.TaskID)
	}
	return nil
}
