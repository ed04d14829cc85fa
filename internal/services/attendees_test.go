package services

import (
	"context"
	"testing"

	"eventadmin-client-go/internal/api"
)

func TestAttachPayloadShapeFollowsCardinality(t *testing.T) {
	single := attachPayload([]int{7})
	if got, ok := single["user_id"]; !ok || got != 7 {
		t.Fatalf("single payload = %v", single)
	}
	if _, ok := single["user_ids"]; ok {
		t.Fatalf("single payload carries user_ids: %v", single)
	}

	many := attachPayload([]int{7, 8})
	if _, ok := many["user_id"]; ok {
		t.Fatalf("multi payload carries user_id: %v", many)
	}
	if got := many["user_ids"].([]int); len(got) != 2 {
		t.Fatalf("multi payload = %v", many)
	}
}

func TestAttachCountsAlreadyAttachedWithoutFailing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.events.AttachUsers(ctx, 1, []int{2})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if first.Stats.NewlyAttached != 1 || first.Stats.TotalAttendees != 1 {
		t.Fatalf("stats = %+v", first.Stats)
	}

	// Overlapping selection: 2 is already on the roster, 3 and 4 are new.
	second, err := e.events.AttachUsers(ctx, 1, []int{2, 3, 4})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	stats := second.Stats
	if stats.TotalAttempted != 3 || stats.NewlyAttached != 2 || stats.AlreadyAttached != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TotalAttendees != 3 {
		t.Fatalf("total attendees = %d", stats.TotalAttendees)
	}
	roster := e.backend.Roster(1)
	for _, id := range []int{2, 3, 4} {
		if !roster[id] {
			t.Fatalf("roster missing %d: %v", id, roster)
		}
	}
}

func TestDetachCountsNotAttached(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.AttachUsers(ctx, 1, []int{2, 3}); err != nil {
		t.Fatal(err)
	}

	result, err := e.events.DetachUsers(ctx, 1, []int{2, 9})
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	stats := result.Stats
	if stats.TotalAttempted != 2 || stats.ActuallyDetached != 1 || stats.NotAttached != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TotalAttendees != 1 {
		t.Fatalf("total attendees = %d", stats.TotalAttendees)
	}
	if e.backend.Roster(1)[2] {
		t.Fatal("user 2 still on roster")
	}
}

func TestAttachRejectsEmptySelectionLocally(t *testing.T) {
	e := newEnv(t)
	_, err := e.events.AttachUsers(context.Background(), 1, nil)
	if api.StatusOf(err) != 400 {
		t.Fatalf("err = %v", err)
	}
	if got := e.backend.CountRequests("POST", "/events/1/users"); got != 0 {
		t.Fatalf("empty selection sent %d requests", got)
	}
}

func TestRosterSnapshotSeedsDetailCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.AttachUsers(ctx, 1, []int{2, 3}); err != nil {
		t.Fatal(err)
	}

	// The attach response's event snapshot was written through the cache, so
	// the default detail view serves without a network read.
	event, err := e.events.Get(ctx, 1, AttendeeQuery{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if event.UsersCount != 2 {
		t.Fatalf("users count = %d", event.UsersCount)
	}
	if got := e.backend.CountRequests("GET", "/events/1"); got != 0 {
		t.Fatalf("detail requests = %d, want 0", got)
	}
}
