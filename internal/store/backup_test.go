package store

import (
	"testing"

	"github.com/dukerupert/mom/internal/model"
)

func TestBackupCreate(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, err := bs.Create("mom_backup_2024-05-01.json.enc", "backups/mom_backup_2024-05-01.json.enc", true)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Status != model.BackupStatusUploading {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusUploading)
	}
	if !b.Encrypted {
		t.Error("expected encrypted")
	}
	if b.CompletedAt != nil {
		t.Error("expected nil completed_at")
	}
}

func TestBackupMarkCompleted(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, _ := bs.Create("a.json", "backups/a.json", false)
	if err := bs.MarkCompleted(b.ID, 2048); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusCompleted)
	}
	if got.SizeBytes != 2048 {
		t.Errorf("size = %d, want 2048", got.SizeBytes)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.ID != b.ID {
		t.Errorf("latest = %+v, want id %d", latest, b.ID)
	}
}

func TestBackupMarkFailed(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, _ := bs.Create("a.json", "backups/a.json", false)
	if err := bs.MarkFailed(b.ID, "bucket missing"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusFailed)
	}
	if got.ErrorMessage != "bucket missing" {
		t.Errorf("error_message = %q, want %q", got.ErrorMessage, "bucket missing")
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected no completed backup, got %+v", latest)
	}
}

func TestBackupList(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	bs.Create("a.json", "backups/a.json", false)
	bs.Create("b.json", "backups/b.json", false)
	bs.Create("c.json", "backups/c.json", false)

	backups, err := bs.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("len = %d, want 2", len(backups))
	}
	if backups[0].Filename != "c.json" {
		t.Errorf("first = %q, want %q", backups[0].Filename, "c.json")
	}
}
