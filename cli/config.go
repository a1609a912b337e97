// ABOUTME: Interactive configuration command
// ABOUTME: Prompts for provider, convention, and API tokens; tokens read without echo
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/iross/taskbridge/config"
	"github.com/iross/taskbridge/parser"
)

// ConfigCommand walks through credential and convention setup and writes
// the config file.
func ConfigCommand(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("taskbridge configuration")
	fmt.Println("Press enter to keep the current value.")
	fmt.Println()

	provider := promptString(reader, fmt.Sprintf("Task provider (linear/todoist/taskwarrior) [%s]", cfg.Provider))
	if provider != "" {
		switch provider {
		case config.ProviderLinear, config.ProviderTodoist, config.ProviderTaskwarrior:
			cfg.Provider = provider
		default:
			return fmt.Errorf("unknown provider %q", provider)
		}
	}

	convention := promptString(reader, fmt.Sprintf("Naming convention (label/prefix) [%s]", cfg.Convention))
	if convention != "" {
		if !parser.Convention(convention).Valid() {
			return fmt.Errorf("unknown convention %q", convention)
		}
		cfg.Convention = convention
	}

	switch cfg.Provider {
	case config.ProviderLinear:
		if token, err := promptSecret("Linear API token", cfg.LinearToken != ""); err != nil {
			return err
		} else if token != "" {
			cfg.LinearToken = token
		}
	case config.ProviderTodoist:
		if token, err := promptSecret("Todoist API token", cfg.TodoistToken != ""); err != nil {
			return err
		} else if token != "" {
			cfg.TodoistToken = token
		}
	case config.ProviderTaskwarrior:
		if cmd := promptString(reader, fmt.Sprintf("Taskwarrior command [%s]", cfg.TaskwarriorCmd)); cmd != "" {
			cfg.TaskwarriorCmd = cmd
		}
	}

	if token, err := promptSecret("Toggl API token", cfg.TogglToken != ""); err != nil {
		return err
	} else if token != "" {
		cfg.TogglToken = token
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Configuration saved to %s\n", config.Path())
	return nil
}

func promptString(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// promptSecret reads a token without echoing it. Falls back to a plain
// read when stdin is not a terminal (piped input in scripts).
func promptSecret(label string, hasCurrent bool) (string, error) {
	suffix := ""
	if hasCurrent {
		suffix = " (set, enter to keep)"
	}
	fmt.Printf("%s%s: ", label, suffix)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", nil
		}
		return strings.TrimSpace(line), nil
	}

	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
