// ABOUTME: Tests for the append-only sync log
// ABOUTME: Covers ordering, source-ID dedup checks, and pruning
package db

import (
	"testing"

	"github.com/iross/taskbridge/models"
)

func TestAppendAndListSyncLog(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id, err := AppendSyncLog(db, models.ActionCreateClient, "", `{"client":"Acme"}`)
	if err != nil {
		t.Fatalf("AppendSyncLog failed: %v", err)
	}
	if id == "" {
		t.Error("Expected non-empty entry ID")
	}

	if _, err := AppendSyncLog(db, models.ActionCreateProject, "", `{"project":"Website"}`); err != nil {
		t.Fatalf("AppendSyncLog failed: %v", err)
	}

	entries, err := ListSyncLog(db, 10)
	if err != nil {
		t.Fatalf("ListSyncLog failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
}

func TestSyncLogExists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	exists, err := SyncLogExists(db, "evt-1")
	if err != nil {
		t.Fatalf("SyncLogExists failed: %v", err)
	}
	if exists {
		t.Error("Expected no entry for evt-1")
	}

	if _, err := AppendSyncLog(db, models.ActionLink, "evt-1", ""); err != nil {
		t.Fatalf("AppendSyncLog failed: %v", err)
	}

	exists, err = SyncLogExists(db, "evt-1")
	if err != nil {
		t.Fatalf("SyncLogExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected entry for evt-1")
	}
}

func TestAppendSyncLogRejectsUnknownAction(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := AppendSyncLog(db, "explode", "", ""); err == nil {
		t.Error("Expected CHECK constraint violation for unknown action")
	}
}

func TestPruneSyncLogKeepsRecent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := AppendSyncLog(db, models.ActionSkip, "", "recent"); err != nil {
		t.Fatalf("AppendSyncLog failed: %v", err)
	}

	pruned, err := PruneSyncLog(db, 30)
	if err != nil {
		t.Fatalf("PruneSyncLog failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("Expected 0 pruned rows, got %d", pruned)
	}

	entries, err := ListSyncLog(db, 10)
	if err != nil {
		t.Fatalf("ListSyncLog failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected recent entry to survive, got %d", len(entries))
	}
}
