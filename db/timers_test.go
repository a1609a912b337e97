// ABOUTME: Tests for timer session persistence
// ABOUTME: Covers open-session lookup, closing, and per-task history
package db

import (
	"testing"
	"time"

	"github.com/iross/taskbridge/models"
)

func TestCreateAndOpenTimerSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := &models.TimerSession{TaskID: "T1", Description: "Fix login bug", ProjectName: "Website"}
	if err := CreateTimerSession(db, s); err != nil {
		t.Fatalf("CreateTimerSession failed: %v", err)
	}
	if s.ID == 0 {
		t.Error("Session ID was not set")
	}

	open, err := OpenTimerSession(db)
	if err != nil {
		t.Fatalf("OpenTimerSession failed: %v", err)
	}
	if open == nil {
		t.Fatal("Expected open session")
	}
	if open.TaskID != "T1" || !open.Open() {
		t.Errorf("Unexpected open session: %+v", open)
	}
}

func TestOpenTimerSessionNone(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	open, err := OpenTimerSession(db)
	if err != nil {
		t.Fatalf("OpenTimerSession failed: %v", err)
	}
	if open != nil {
		t.Errorf("Expected no open session, got %+v", open)
	}
}

func TestCloseTimerSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := &models.TimerSession{Description: "meeting"}
	if err := CreateTimerSession(db, s); err != nil {
		t.Fatalf("CreateTimerSession failed: %v", err)
	}

	stopped := time.Now()
	if err := CloseTimerSession(db, s.ID, stopped); err != nil {
		t.Fatalf("CloseTimerSession failed: %v", err)
	}

	open, err := OpenTimerSession(db)
	if err != nil {
		t.Fatalf("OpenTimerSession failed: %v", err)
	}
	if open != nil {
		t.Error("Expected session to be closed")
	}

	// Closing again is an error: the row is no longer open
	if err := CloseTimerSession(db, s.ID, time.Now()); err == nil {
		t.Error("Expected error closing an already-closed session")
	}
}

func TestLatestSessionForTask(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first := &models.TimerSession{TaskID: "T2", Description: "round one", StartedAt: time.Now().Add(-2 * time.Hour)}
	if err := CreateTimerSession(db, first); err != nil {
		t.Fatalf("CreateTimerSession failed: %v", err)
	}
	if err := CloseTimerSession(db, first.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CloseTimerSession failed: %v", err)
	}

	second := &models.TimerSession{TaskID: "T2", Description: "round two"}
	if err := CreateTimerSession(db, second); err != nil {
		t.Fatalf("CreateTimerSession failed: %v", err)
	}

	latest, err := LatestSessionForTask(db, "T2")
	if err != nil {
		t.Fatalf("LatestSessionForTask failed: %v", err)
	}
	if latest == nil || latest.Description != "round two" {
		t.Errorf("Expected round two, got %+v", latest)
	}
}
