// ABOUTME: Project mapping database operations
// ABOUTME: Handles creation, lookup, and soft-archival of source/target project links
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iross/taskbridge/models"
)

const mappingColumns = "id, source_id, source_name, target_client_id, target_project_id, status, created_at, updated_at"

// CreateMapping inserts a new mapping row. The caller-supplied struct gets
// its ID and timestamps populated. source_id uniqueness is enforced by the
// schema: a source project maps at most once.
func CreateMapping(db *sql.DB, m *models.ProjectMapping) error {
	m.ID = uuid.New()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = models.MappingStatusActive
	}

	_, err := db.Exec(`
		INSERT INTO project_mappings (id, source_id, source_name, target_client_id, target_project_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID.String(), m.SourceID, m.SourceName, m.TargetClientID, m.TargetProjectID, m.Status, m.CreatedAt, m.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create mapping: %w", err)
	}

	return nil
}

// GetMappingBySourceID returns the mapping for a task-provider project,
// or nil if none exists.
func GetMappingBySourceID(db *sql.DB, sourceID string) (*models.ProjectMapping, error) {
	row := db.QueryRow(`
		SELECT `+mappingColumns+`
		FROM project_mappings WHERE source_id = ?
	`, sourceID)

	return scanMappingRow(row)
}

// GetMappingByTargetProjectID returns the mapping holding a given Toggl
// project ID, or nil if none exists.
func GetMappingByTargetProjectID(db *sql.DB, projectID int64) (*models.ProjectMapping, error) {
	row := db.QueryRow(`
		SELECT `+mappingColumns+`
		FROM project_mappings WHERE target_project_id = ?
	`, projectID)

	return scanMappingRow(row)
}

// ListMappings returns mappings ordered by creation time, newest first.
// Archived rows are included only when includeArchived is set.
func ListMappings(db *sql.DB, includeArchived bool) ([]models.ProjectMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM project_mappings`
	if !includeArchived {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mappings []models.ProjectMapping
	for rows.Next() {
		m, err := scanMapping(rows.Scan)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}

	return mappings, nil
}

// UpdateMappingTargets points an existing mapping at new Toggl identifiers,
// used when the engine re-links after external drift.
func UpdateMappingTargets(db *sql.DB, id uuid.UUID, clientID, projectID int64) error {
	result, err := db.Exec(`
		UPDATE project_mappings
		SET target_client_id = ?, target_project_id = ?, status = 'active', updated_at = ?
		WHERE id = ?
	`, clientID, projectID, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update mapping targets: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("mapping %s not found", id)
	}

	return nil
}

// ArchiveMapping soft-deletes a mapping. Rows are never removed so the
// audit trail stays intact.
func ArchiveMapping(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`
		UPDATE project_mappings SET status = 'archived', updated_at = ? WHERE id = ?
	`, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to archive mapping: %w", err)
	}
	return nil
}

func scanMappingRow(row *sql.Row) (*models.ProjectMapping, error) {
	m, err := scanMapping(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func scanMapping(scan func(dest ...any) error) (*models.ProjectMapping, error) {
	var m models.ProjectMapping
	var id string
	var clientID, projectID sql.NullInt64

	err := scan(&id, &m.SourceID, &m.SourceName, &clientID, &projectID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping id %q: %w", id, err)
	}
	m.ID = parsed

	if clientID.Valid {
		m.TargetClientID = &clientID.Int64
	}
	if projectID.Valid {
		m.TargetProjectID = &projectID.Int64
	}

	return &m, nil
}
