// ABOUTME: Entry point for the taskbridge CLI
// ABOUTME: Routes subcommands to sync, timer, search, and maintenance handlers
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/iross/taskbridge/cli"
	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/db"
)

const version = "0.2.0"

func main() {
	// Optional .env for tokens during development; ignore if absent.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: XDG data dir)")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("taskbridge version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	// config needs no database or credentials.
	if command == "config" {
		if err := cli.ConfigCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := *dbPath
	if path == "" {
		path = db.DefaultPath()
	}
	database, err := db.OpenDatabase(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	switch command {
	case "sync":
		if err := cli.SyncCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "search":
		if err := cli.SearchCommand(cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "start":
		if err := cli.StartCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "stop":
		if err := cli.StopCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "status":
		if err := cli.StatusCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "list-projects":
		if err := cli.ListProjectsCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "report":
		if err := cli.ReportCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "log":
		if err := cli.LogCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "prune-log":
		if err := cli.PruneLogCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "calendar":
		if err := cli.CalendarCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`taskbridge - keep task projects and time tracking in sync

Usage:
  taskbridge [flags] <command> [args]

Commands:
  config               Interactive credential and convention setup
  sync [--dry-run] [--yes]
                       Reconcile task projects with Toggl clients/projects
  search <query>       Search tasks in the configured provider
  start [task-id]      Start a timer (stops any running one first)
  stop                 Stop the running timer
  status               Show the running timer
  list-projects [--all]
                       Show the project mapping table
  report [--days N]    Summarize tracked time from Toggl
  log [--limit N]      Show recent sync log entries
  prune-log [--days N] Delete old sync log entries
  calendar [--days N]  Import recent meetings as timer sessions

Flags:
  --version            Show version
  --db-path <path>     Override the database location`)
}
