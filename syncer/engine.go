// ABOUTME: Project/client reconciliation engine
// ABOUTME: Analyze computes a diff across both backends; Apply executes confirmed creates
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iross/taskbridge/db"
	"github.com/iross/taskbridge/models"
	"github.com/iross/taskbridge/parser"
	"github.com/iross/taskbridge/providers"
	"github.com/iross/taskbridge/remote"
	"github.com/iross/taskbridge/toggl"
)

// TimeTracker is the Toggl capability set the engine needs.
type TimeTracker interface {
	ListClients(ctx context.Context) ([]toggl.Client, error)
	CreateClient(ctx context.Context, name string) (*toggl.Client, error)
	ListProjects(ctx context.Context, clientID *int64) ([]toggl.Project, error)
	CreateProject(ctx context.Context, name string, clientID *int64) (*toggl.Project, error)
}

// Engine reconciles the task provider's project taxonomy with Toggl's
// client→project tree through the local mapping store. Analyze never
// mutates anything; Apply is the only writer of new mapping rows.
type Engine struct {
	store      *sql.DB
	provider   providers.TaskProvider
	tracker    TimeTracker
	convention parser.Convention
}

func New(store *sql.DB, provider providers.TaskProvider, tracker TimeTracker, convention parser.Convention) *Engine {
	return &Engine{store: store, provider: provider, tracker: tracker, convention: convention}
}

// Analyze fetches both backends and the mapping table and buckets every
// observed project. Any read failure aborts the whole pass; a diff built
// from partial reads would mislead the confirmation step.
func (e *Engine) Analyze(ctx context.Context) (*Diff, error) {
	sourceProjects, err := e.provider.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s projects: %w", e.provider.Name(), err)
	}

	clients, err := e.tracker.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read toggl clients: %w", err)
	}

	togglProjects, err := e.tracker.ListProjects(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read toggl projects: %w", err)
	}

	mappings, err := db.ListMappings(e.store, false)
	if err != nil {
		return nil, err
	}

	clientByID := make(map[int64]toggl.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}
	projectByID := make(map[int64]toggl.Project, len(togglProjects))
	for _, p := range togglProjects {
		projectByID[p.ID] = p
	}
	mappingBySource := make(map[string]models.ProjectMapping, len(mappings))
	for _, m := range mappings {
		mappingBySource[m.SourceID] = m
	}

	diff := &Diff{}
	// Toggl projects spoken for by a mapping or a pending target entry;
	// everything left over with a client becomes a source create.
	claimed := make(map[int64]bool)

	for _, sp := range sourceProjects {
		parsed := e.convention.Parse(sp.Name, sp.Labels)
		if !parsed.HasClient() {
			diff.Unparseable = append(diff.Unparseable, parsed.Raw)
			continue
		}

		if m, ok := mappingBySource[sp.ID]; ok {
			if e.mappingLive(m, clientByID, projectByID) {
				claimed[*m.TargetProjectID] = true
				diff.AlreadyMapped = append(diff.AlreadyMapped, m)
				continue
			}
			// Toggl side drifted (deleted externally or never filled
			// in): self-heal by re-creating rather than erroring.
			relink := m
			diff.ToCreateInTarget = append(diff.ToCreateInTarget, TargetCreate{
				SourceID:   sp.ID,
				SourceName: sp.Name,
				Label:      parsed,
				Relink:     &relink,
			})
			continue
		}

		// No active mapping. An archived row may still hold this
		// source_id; it has to be revived in place, a fresh insert
		// would trip the uniqueness constraint.
		archived, err := db.GetMappingBySourceID(e.store, sp.ID)
		if err != nil {
			return nil, err
		}

		// Match by normalized name under the client, if it exists. One
		// match is a link candidate, several is a conflict the engine
		// will not guess about.
		matches := matchProjects(clients, togglProjects, parsed)
		if len(matches) > 1 {
			for _, p := range matches {
				claimed[p.ID] = true
			}
			diff.Conflicts = append(diff.Conflicts, Conflict{
				SourceID:    sp.ID,
				Client:      parsed.Client,
				ProjectName: parsed.ProjectName,
				Reason:      fmt.Sprintf("%d toggl projects share this name under the client", len(matches)),
			})
			continue
		}
		if len(matches) == 1 {
			claimed[matches[0].ID] = true
		}
		diff.ToCreateInTarget = append(diff.ToCreateInTarget, TargetCreate{
			SourceID:   sp.ID,
			SourceName: sp.Name,
			Label:      parsed,
			Relink:     archived,
		})
	}

	// Active mappings whose source project no longer exists get retired.
	// The row is kept for the audit trail and to pin the Toggl project,
	// so the reverse direction does not recreate the pair.
	sourceByID := make(map[string]bool, len(sourceProjects))
	for _, sp := range sourceProjects {
		sourceByID[sp.ID] = true
	}
	for _, m := range mappings {
		if !sourceByID[m.SourceID] {
			diff.ToArchive = append(diff.ToArchive, m)
			if m.TargetProjectID != nil {
				claimed[*m.TargetProjectID] = true
			}
		}
	}

	// Reverse direction: any client-attached Toggl project nobody claims
	// needs a counterpart in the task provider.
	for _, tp := range togglProjects {
		if tp.ClientID == nil || claimed[tp.ID] {
			continue
		}
		if m, err := db.GetMappingByTargetProjectID(e.store, tp.ID); err != nil {
			return nil, err
		} else if m != nil {
			continue
		}
		client, ok := clientByID[*tp.ClientID]
		if !ok {
			continue
		}
		diff.ToCreateInSource = append(diff.ToCreateInSource, SourceCreate{
			ClientID:    client.ID,
			ClientName:  client.Name,
			ProjectID:   tp.ID,
			ProjectName: tp.Name,
		})
	}

	return diff, nil
}

// mappingLive checks the Toggl side of a mapping against live state.
func (e *Engine) mappingLive(m models.ProjectMapping, clients map[int64]toggl.Client, projects map[int64]toggl.Project) bool {
	if m.TargetClientID == nil || m.TargetProjectID == nil {
		return false
	}
	if _, ok := clients[*m.TargetClientID]; !ok {
		return false
	}
	_, ok := projects[*m.TargetProjectID]
	return ok
}

func matchProjects(clients []toggl.Client, projects []toggl.Project, parsed models.ParsedLabel) []toggl.Project {
	var client *toggl.Client
	for i := range clients {
		if parser.SameClient(clients[i].Name, parsed.Client) {
			client = &clients[i]
			break
		}
	}
	if client == nil {
		return nil
	}

	want := parser.NormalizeName(parsed.ProjectName)
	var matches []toggl.Project
	for _, p := range projects {
		if p.ClientID != nil && *p.ClientID == client.ID && parser.NormalizeName(p.Name) == want {
			matches = append(matches, p)
		}
	}
	return matches
}

// Apply executes the confirmed diff: clients before their projects, one
// log row per action. A duplicate conflict means another process won the
// race, so the ID is re-resolved by lookup and recorded as a link. Auth,
// rate-limit, and transport failures abort the remaining queue; applied
// actions stand and the log shows exactly how far the pass got.
func (e *Engine) Apply(ctx context.Context, diff *Diff) (*Result, error) {
	res := &Result{Skipped: len(diff.Unparseable)}

	for _, c := range diff.Conflicts {
		details := fmt.Sprintf("conflict for %s/%s: %s", c.Client, c.ProjectName, c.Reason)
		if _, err := db.AppendSyncLog(e.store, models.ActionSkip, c.SourceID, details); err != nil {
			return res, err
		}
		res.Skipped++
	}

	total := diff.PendingActions()
	applied := 0

	// Archivals are local-only, so they run before anything that can
	// fail on a remote.
	for _, m := range diff.ToArchive {
		if err := db.ArchiveMapping(e.store, m.ID); err != nil {
			res.Failed++
			res.Pending = total - applied
			return res, err
		}
		details := fmt.Sprintf("archived mapping for %s: project removed from %s", m.SourceName, e.provider.Name())
		if _, err := db.AppendSyncLog(e.store, models.ActionSkip, m.SourceID, details); err != nil {
			return res, err
		}
		res.Archived++
		applied++
	}

	for _, tc := range diff.ToCreateInTarget {
		if err := e.applyTarget(ctx, tc, res); err != nil {
			res.Failed++
			res.Pending = total - applied
			return res, err
		}
		applied++
	}

	for _, sc := range diff.ToCreateInSource {
		if err := e.applySource(ctx, sc, res); err != nil {
			res.Failed++
			res.Pending = total - applied
			return res, err
		}
		applied++
	}

	return res, nil
}

type resolveOutcome int

const (
	resolvedExisting resolveOutcome = iota
	resolvedCreated
	resolvedAfterRace
)

func (e *Engine) applyTarget(ctx context.Context, tc TargetCreate, res *Result) error {
	client, clientOutcome, err := e.resolveClient(ctx, tc.Label.Client)
	if err != nil {
		return e.logFailure(tc.SourceID, fmt.Sprintf("client %s: %v", tc.Label.Client, err), err)
	}

	switch clientOutcome {
	case resolvedCreated:
		if _, err := db.AppendSyncLog(e.store, models.ActionCreateClient, tc.SourceID, "created toggl client "+client.Name); err != nil {
			return err
		}
		res.Created++
	case resolvedAfterRace:
		if _, err := db.AppendSyncLog(e.store, models.ActionLink, tc.SourceID, "linked existing toggl client "+client.Name); err != nil {
			return err
		}
		res.Linked++
	}

	project, projectOutcome, err := e.resolveProject(ctx, client.ID, tc.Label.ProjectName)
	if err != nil {
		return e.logFailure(tc.SourceID, fmt.Sprintf("project %s: %v", tc.Label.ProjectName, err), err)
	}

	switch projectOutcome {
	case resolvedCreated:
		details := fmt.Sprintf("created toggl project %s under %s", project.Name, client.Name)
		if _, err := db.AppendSyncLog(e.store, models.ActionCreateProject, tc.SourceID, details); err != nil {
			return err
		}
		res.Created++
	default:
		details := fmt.Sprintf("linked toggl project %s under %s", project.Name, client.Name)
		if _, err := db.AppendSyncLog(e.store, models.ActionLink, tc.SourceID, details); err != nil {
			return err
		}
		res.Linked++
	}

	if tc.Relink != nil {
		return db.UpdateMappingTargets(e.store, tc.Relink.ID, client.ID, project.ID)
	}
	return db.CreateMapping(e.store, &models.ProjectMapping{
		SourceID:        tc.SourceID,
		SourceName:      tc.SourceName,
		TargetClientID:  &client.ID,
		TargetProjectID: &project.ID,
	})
}

func (e *Engine) resolveClient(ctx context.Context, name string) (*toggl.Client, resolveOutcome, error) {
	clients, err := e.tracker.ListClients(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := range clients {
		if parser.SameClient(clients[i].Name, name) {
			return &clients[i], resolvedExisting, nil
		}
	}

	created, err := e.tracker.CreateClient(ctx, name)
	if err == nil {
		return created, resolvedCreated, nil
	}
	if !errors.Is(err, remote.ErrDuplicateClient) {
		return nil, 0, err
	}

	// Lost a create race: the client exists now, find it.
	clients, lerr := e.tracker.ListClients(ctx)
	if lerr != nil {
		return nil, 0, lerr
	}
	for i := range clients {
		if parser.SameClient(clients[i].Name, name) {
			return &clients[i], resolvedAfterRace, nil
		}
	}
	return nil, 0, err
}

func (e *Engine) resolveProject(ctx context.Context, clientID int64, name string) (*toggl.Project, resolveOutcome, error) {
	find := func() (*toggl.Project, error) {
		projects, err := e.tracker.ListProjects(ctx, &clientID)
		if err != nil {
			return nil, err
		}
		want := parser.NormalizeName(name)
		for i := range projects {
			if parser.NormalizeName(projects[i].Name) == want {
				return &projects[i], nil
			}
		}
		return nil, nil
	}

	existing, err := find()
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		return existing, resolvedExisting, nil
	}

	created, err := e.tracker.CreateProject(ctx, name, &clientID)
	if err == nil {
		return created, resolvedCreated, nil
	}
	if !errors.Is(err, remote.ErrDuplicateProject) {
		return nil, 0, err
	}

	raced, lerr := find()
	if lerr != nil {
		return nil, 0, lerr
	}
	if raced != nil {
		return raced, resolvedAfterRace, nil
	}
	return nil, 0, err
}

func (e *Engine) applySource(ctx context.Context, sc SourceCreate, res *Result) error {
	// Provider project creation carries only a name, so the pair is
	// encoded name-prefix style regardless of the active convention; the
	// mapping row written below keeps it linked either way.
	name, _ := parser.ConventionPrefix.Format(sc.ClientName, sc.ProjectName)

	created, err := e.provider.CreateProject(ctx, name)
	if err != nil {
		if errors.Is(err, remote.ErrDuplicateProject) {
			return e.linkExistingSource(ctx, sc, name, res)
		}
		return e.logFailure("", fmt.Sprintf("provider project %s: %v", name, err), err)
	}

	details := fmt.Sprintf("created %s project %s for %s/%s", e.provider.Name(), created.Name, sc.ClientName, sc.ProjectName)
	if _, err := db.AppendSyncLog(e.store, models.ActionCreateProject, created.ID, details); err != nil {
		return err
	}
	res.Created++

	return db.CreateMapping(e.store, &models.ProjectMapping{
		SourceID:        created.ID,
		SourceName:      created.Name,
		TargetClientID:  &sc.ClientID,
		TargetProjectID: &sc.ProjectID,
	})
}

// linkExistingSource handles a provider-side create race the same way the
// target direction does: find the winner and record a link.
func (e *Engine) linkExistingSource(ctx context.Context, sc SourceCreate, name string, res *Result) error {
	projects, err := e.provider.ListProjects(ctx)
	if err != nil {
		return err
	}

	want := parser.NormalizeName(name)
	for _, p := range projects {
		if parser.NormalizeName(p.Name) != want {
			continue
		}
		details := fmt.Sprintf("linked existing %s project %s", e.provider.Name(), p.Name)
		if _, err := db.AppendSyncLog(e.store, models.ActionLink, p.ID, details); err != nil {
			return err
		}
		res.Linked++
		return db.CreateMapping(e.store, &models.ProjectMapping{
			SourceID:        p.ID,
			SourceName:      p.Name,
			TargetClientID:  &sc.ClientID,
			TargetProjectID: &sc.ProjectID,
		})
	}
	return fmt.Errorf("%w: %s reported but not found", remote.ErrDuplicateProject, name)
}

func (e *Engine) logFailure(sourceID, details string, cause error) error {
	if _, err := db.AppendSyncLog(e.store, models.ActionError, sourceID, details); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
