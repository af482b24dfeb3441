package store

import (
	"strings"
	"testing"
)

func TestAppointmentCreate(t *testing.T) {
	as := NewAppointmentStore(setupTestDB(t))

	a, err := as.Create("Dentist", "2024-05-01T10:00", "bring card")
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if !strings.HasPrefix(a.ID, "app_") {
		t.Errorf("id = %q, want app_ prefix", a.ID)
	}
	if a.Title != "Dentist" {
		t.Errorf("title = %q, want %q", a.Title, "Dentist")
	}
	if a.Datetime != "2024-05-01T10:00" {
		t.Errorf("datetime = %q, want %q", a.Datetime, "2024-05-01T10:00")
	}
	if a.Note != "bring card" {
		t.Errorf("note = %q, want %q", a.Note, "bring card")
	}
}

func TestAppointmentListChronological(t *testing.T) {
	as := NewAppointmentStore(setupTestDB(t))

	as.Create("Later", "2024-05-02T09:00", "")
	as.Create("Sooner", "2024-05-01T09:00", "")

	appts, err := as.List()
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("len = %d, want 2", len(appts))
	}
	if appts[0].Title != "Sooner" || appts[1].Title != "Later" {
		t.Errorf("order = [%s %s], want [Sooner Later]", appts[0].Title, appts[1].Title)
	}
}

func TestAppointmentUpdate(t *testing.T) {
	as := NewAppointmentStore(setupTestDB(t))

	a, _ := as.Create("Dentist", "2024-05-01T10:00", "")
	updated, err := as.Update(a.ID, "Dentist", "2024-05-01T11:30", "moved")
	if err != nil {
		t.Fatalf("update appointment: %v", err)
	}
	if updated.Datetime != "2024-05-01T11:30" {
		t.Errorf("datetime = %q, want %q", updated.Datetime, "2024-05-01T11:30")
	}
	if updated.Note != "moved" {
		t.Errorf("note = %q, want %q", updated.Note, "moved")
	}
}

func TestAppointmentDelete(t *testing.T) {
	as := NewAppointmentStore(setupTestDB(t))

	a, _ := as.Create("Dentist", "2024-05-01T10:00", "")
	if err := as.Delete(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
