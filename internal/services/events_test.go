package services

import (
	"context"
	"testing"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"

	"github.com/google/uuid"
)

func TestChangeStatusPatchesCachedPagesBeforeRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := query.NewParams(10)
	if _, err := e.events.List(ctx, p); err != nil {
		t.Fatal(err)
	}

	change, err := e.events.ChangeStatus(ctx, 1, models.EventOngoing)
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if change.OperationID == uuid.Nil {
		t.Fatal("operation id not assigned")
	}

	// The cached page already carries the new status; no refetch happened.
	cached, ok := e.cache.Peek(p.Key("events"))
	if !ok {
		t.Fatal("list entry gone after successful change")
	}
	page := cached.(*models.Page[models.Event])
	if page.Data[0].ID != 1 || page.Data[0].Status != models.EventOngoing {
		t.Fatalf("cached event = %+v", page.Data[0])
	}
	if got := e.backend.CountRequests("GET", "/events?"); got != 1 {
		t.Fatalf("list requests = %d, want 1", got)
	}
	if got := e.backend.EventStatus(1); got != models.EventOngoing {
		t.Fatalf("server status = %q", got)
	}
}

func TestChangeStatusRollsBackOnServerFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := query.NewParams(10)
	if _, err := e.events.List(ctx, p); err != nil {
		t.Fatal(err)
	}
	e.backend.FailStatusChange = true

	_, err := e.events.ChangeStatus(ctx, 1, models.EventCancelled)
	if err == nil {
		t.Fatal("server failure not surfaced")
	}

	// The optimistic value must not survive: the scope is invalidated and the
	// next read reconciles to the server.
	if _, ok := e.cache.Peek(p.Key("events")); ok {
		t.Fatal("list entry survived failed mutation")
	}
	e.backend.FailStatusChange = false
	page, err := e.events.List(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if page.Data[0].Status != models.EventUpcoming {
		t.Fatalf("reconciled status = %q, want server value", page.Data[0].Status)
	}
}

func TestChangeStatusRejectsUnknownStatusLocally(t *testing.T) {
	e := newEnv(t)
	_, err := e.events.ChangeStatus(context.Background(), 1, "archived")
	if api.StatusOf(err) != 400 {
		t.Fatalf("err = %v", err)
	}
	if got := e.backend.CountRequests("PATCH", "/events/1/status"); got != 0 {
		t.Fatalf("invalid status still sent %d requests", got)
	}
}

func TestEventDetailPaginatesRoster(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.AttachUsers(ctx, 1, []int{2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}

	event, err := e.events.Get(ctx, 1, AttendeeQuery{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if event.UsersCount != 4 {
		t.Fatalf("users count = %d", event.UsersCount)
	}
	if event.Users == nil || len(event.Users.Data) != 2 || !event.Users.HasMore() {
		t.Fatalf("roster page = %+v", event.Users)
	}
}

func TestUpdateEventInvalidatesDetailScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.Get(ctx, 2, AttendeeQuery{}); err != nil {
		t.Fatal(err)
	}

	updated, err := e.events.Update(ctx, 2, EventInput{Name: "Leaders Summit 2026"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Leaders Summit 2026" {
		t.Fatalf("updated = %+v", updated)
	}

	event, err := e.events.Get(ctx, 2, AttendeeQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if event.Name != "Leaders Summit 2026" {
		t.Fatalf("stale detail served: %q", event.Name)
	}
}
