// ABOUTME: Sync diff types and preview rendering
// ABOUTME: Buckets every observed project into create, link, conflict, or unparseable
package syncer

import (
	"fmt"
	"strings"

	"github.com/iross/taskbridge/models"
)

// TargetCreate is a task-provider project that needs a Toggl client and
// project looked up or created. Relink is set when a mapping row already
// holds this source_id — drifted Toggl side, or an archived row for a
// project that came back; apply then updates that row instead of
// inserting a new one.
type TargetCreate struct {
	SourceID   string
	SourceName string
	Label      models.ParsedLabel
	Relink     *models.ProjectMapping
}

// SourceCreate is a Toggl client/project pair with no mapping: apply
// creates a matching project in the task provider.
type SourceCreate struct {
	ClientID    int64
	ClientName  string
	ProjectID   int64
	ProjectName string
}

// Conflict is a project the engine refuses to guess about: several Toggl
// projects share a normalized name under the same client.
type Conflict struct {
	SourceID    string
	Client      string
	ProjectName string
	Reason      string
}

// Diff is the full reconciliation picture from one Analyze pass. Every
// project observed on either side lands in exactly one bucket; nothing
// is dropped. The diff is never cached across runs.
type Diff struct {
	ToCreateInTarget []TargetCreate
	ToCreateInSource []SourceCreate
	// ToArchive holds active mappings whose source project disappeared;
	// apply retires the row instead of deleting it.
	ToArchive     []models.ProjectMapping
	AlreadyMapped []models.ProjectMapping
	Unparseable   []string
	Conflicts     []Conflict
}

// Empty reports whether there is nothing to apply.
func (d *Diff) Empty() bool {
	return len(d.ToCreateInTarget) == 0 && len(d.ToCreateInSource) == 0 &&
		len(d.ToArchive) == 0 && len(d.Conflicts) == 0
}

// PendingActions counts the apply queue.
func (d *Diff) PendingActions() int {
	return len(d.ToCreateInTarget) + len(d.ToCreateInSource) + len(d.ToArchive)
}

// RenderPreview formats the diff as the list of pending actions shown
// before confirmation. Pure formatting, no side effects.
func (d *Diff) RenderPreview() string {
	var b strings.Builder

	if d.Empty() && len(d.Unparseable) == 0 {
		b.WriteString("✓ Everything is already in sync\n")
		return b.String()
	}

	step := 1
	if len(d.ToCreateInTarget) > 0 {
		b.WriteString("Toggl changes:\n")
		for _, tc := range d.ToCreateInTarget {
			verb := "Link or create"
			if tc.Relink != nil {
				verb = "Re-link"
			}
			fmt.Fprintf(&b, "  %d. %s Toggl project %s under client %s (from %s)\n",
				step, verb, tc.Label.ProjectName, tc.Label.Client, tc.SourceName)
			step++
		}
	}

	if len(d.ToCreateInSource) > 0 {
		b.WriteString("Task provider changes:\n")
		for _, sc := range d.ToCreateInSource {
			fmt.Fprintf(&b, "  %d. Create project for %s/%s\n", step, sc.ClientName, sc.ProjectName)
			step++
		}
	}

	if len(d.ToArchive) > 0 {
		b.WriteString("Mapping changes:\n")
		for _, m := range d.ToArchive {
			fmt.Fprintf(&b, "  %d. Archive mapping for %s (source project gone)\n", step, m.SourceName)
			step++
		}
	}

	if len(d.Conflicts) > 0 {
		b.WriteString("⚠ Conflicts (no action will be taken):\n")
		for _, c := range d.Conflicts {
			fmt.Fprintf(&b, "  - %s/%s: %s\n", c.Client, c.ProjectName, c.Reason)
		}
	}

	if len(d.Unparseable) > 0 {
		b.WriteString("⚠ Projects without a client convention (skipped):\n")
		for _, name := range d.Unparseable {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}

	if len(d.AlreadyMapped) > 0 {
		fmt.Fprintf(&b, "%d project(s) already mapped\n", len(d.AlreadyMapped))
	}

	return b.String()
}

// Result summarizes one Apply pass.
type Result struct {
	Created  int
	Linked   int
	Archived int
	Skipped  int
	Failed   int
	// Pending counts confirmed actions left unapplied after an abort.
	Pending int
}

func (r *Result) String() string {
	s := fmt.Sprintf("%d created, %d linked, %d skipped, %d failed", r.Created, r.Linked, r.Skipped, r.Failed)
	if r.Archived > 0 {
		s += fmt.Sprintf(", %d archived", r.Archived)
	}
	if r.Pending > 0 {
		s += fmt.Sprintf(", %d pending (re-run sync to finish)", r.Pending)
	}
	return s
}
