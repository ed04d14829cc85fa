package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
)

func TestUsersExportHonorsServerFilename(t *testing.T) {
	e := newEnv(t)
	blob, name, err := e.exports.UsersWithEventCount(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "users_event_attendance.csv" {
		t.Fatalf("name = %q", name)
	}
	if blob.ContentType != "text/csv" {
		t.Fatalf("content type = %q", blob.ContentType)
	}

	rows, err := csv.NewReader(bytes.NewReader(blob.Data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 26 {
		t.Fatalf("rows = %d, want header + 25 users", len(rows))
	}
	if rows[0][3] != "events_attended" {
		t.Fatalf("header = %v", rows[0])
	}
}

func TestExportFallsBackToDatedFilename(t *testing.T) {
	e := newEnv(t)
	e.backend.OmitDisposition = true
	_, name, err := e.exports.UsersWithEventCount(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(name, "users_event_attendance_") || !strings.HasSuffix(name, ".csv") {
		t.Fatalf("fallback name = %q", name)
	}
}

func TestUserInfoExport(t *testing.T) {
	e := newEnv(t)
	blob, name, err := e.exports.UserInfo(context.Background(), "2")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "user_2_info.csv" {
		t.Fatalf("name = %q", name)
	}
	rows, err := csv.NewReader(bytes.NewReader(blob.Data)).ReadAll()
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
	if rows[1][0] != "2" {
		t.Fatalf("exported wrong user: %v", rows[1])
	}
}

func TestAttendeesExportReflectsRoster(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.AttachUsers(ctx, 1, []int{2, 3}); err != nil {
		t.Fatal(err)
	}

	blob, name, err := e.exports.EventAttendees(ctx, 1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "event_1_attendees.csv" {
		t.Fatalf("name = %q", name)
	}
	rows, err := csv.NewReader(bytes.NewReader(blob.Data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 attendees", len(rows))
	}
}
