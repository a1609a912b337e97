// ABOUTME: Client/project naming convention parsing
// ABOUTME: Pure functions extracting a (client, project) pair from provider project data
package parser

import (
	"strings"

	"github.com/iross/taskbridge/models"
)

// Convention selects how client names are attached to provider projects.
// Exactly one convention is active per deployment, chosen by configuration.
type Convention string

const (
	// ConventionLabel reads a `client/NAME` label attached to the project.
	// The legacy `#client/NAME` spelling is accepted on parse.
	ConventionLabel Convention = "label"
	// ConventionPrefix reads a `#Client/Project` prefix embedded in the
	// project name itself.
	ConventionPrefix Convention = "prefix"
)

const (
	labelMarker       = "client/"
	legacyLabelMarker = "#client/"
)

// Valid reports whether c names a known convention.
func (c Convention) Valid() bool {
	return c == ConventionLabel || c == ConventionPrefix
}

// Parse extracts a ParsedLabel from a project's name and labels. It is
// deterministic and performs no I/O. Whitespace is trimmed; name casing is
// preserved. A project that does not match comes back with an empty Client
// and is carried forward as unparseable, never dropped.
func (c Convention) Parse(name string, labels []string) models.ParsedLabel {
	name = strings.TrimSpace(name)

	switch c {
	case ConventionPrefix:
		if rest, ok := strings.CutPrefix(name, "#"); ok {
			client, project, found := strings.Cut(rest, "/")
			client = strings.TrimSpace(client)
			project = strings.TrimSpace(project)
			if found && client != "" && project != "" {
				return models.ParsedLabel{Client: client, ProjectName: project, Raw: name}
			}
		}

	default: // ConventionLabel
		for _, label := range labels {
			label = strings.TrimSpace(label)
			marker := ""
			if strings.HasPrefix(label, legacyLabelMarker) {
				marker = legacyLabelMarker
			} else if strings.HasPrefix(label, labelMarker) {
				marker = labelMarker
			}
			if marker == "" {
				continue
			}
			client := strings.TrimSpace(label[len(marker):])
			if client != "" {
				return models.ParsedLabel{Client: client, ProjectName: name, Raw: name}
			}
		}
	}

	return models.ParsedLabel{ProjectName: name, Raw: name}
}

// Format renders a (client, project) pair back into a project name and
// labels under the convention. Parse(Format(c, p)) yields the same pair
// modulo whitespace normalization.
func (c Convention) Format(client, project string) (name string, labels []string) {
	client = strings.TrimSpace(client)
	project = strings.TrimSpace(project)

	if c == ConventionPrefix {
		return "#" + client + "/" + project, nil
	}
	return project, []string{labelMarker + client}
}

// SameClient compares client tokens case-insensitively so that casing
// drift never creates duplicate Toggl clients.
func SameClient(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeName produces the key used for name-equality matching when no
// ID-based mapping exists yet: trimmed and case-folded.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
