package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eventadmin-client-go/internal/query"
)

func TestListUsersPaginatesAndCaches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := query.NewParams(10)
	page, err := e.users.List(ctx, p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 10 || page.Total != 25 {
		t.Fatalf("page = %d items of %d", len(page.Data), page.Total)
	}
	if !page.HasMore() {
		t.Fatal("first of three pages reports no more")
	}

	// Same tuple again inside the freshness window: served from cache.
	if _, err := e.users.List(ctx, p); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if got := e.backend.CountRequests("GET", "/users?"); got != 1 {
		t.Fatalf("list requests = %d, want 1", got)
	}

	// A different page is a different tuple and does go out.
	p.SetPage(2)
	last, err := e.users.List(ctx, p)
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if last.HasMore() {
		t.Fatalf("last page claims more: next=%v current=%d last=%d", last.NextPageURL, last.CurrentPage, last.LastPage)
	}
}

func TestListUsersSearchFilters(t *testing.T) {
	e := newEnv(t)
	p := query.NewParams(10)
	p.SetSearch("santos")
	page, err := e.users.List(context.Background(), p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) == 0 {
		t.Fatal("search matched nothing")
	}
	for _, user := range page.Data {
		if !strings.Contains(strings.ToLower(user.FullName()), "santos") {
			t.Fatalf("search leaked %q", user.FullName())
		}
	}
}

func TestCreateUserValidatesBeforeNetwork(t *testing.T) {
	e := newEnv(t)
	_, err := e.users.Create(context.Background(), UserInput{Fields: map[string]string{
		"first_name": "June",
		"last_name":  "Lim",
		// gender missing
	}})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "gender" {
		t.Fatalf("err = %v", err)
	}
	if got := e.backend.CountRequests("POST", "/users"); got != 0 {
		t.Fatalf("validation failure still sent %d requests", got)
	}
}

func TestCreateUserInvalidatesListScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := query.NewParams(50)
	before, err := e.users.List(ctx, p)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.users.Create(ctx, UserInput{Fields: map[string]string{
		"first_name": "Nina",
		"last_name":  "Velasco",
		"gender":     "female",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	after, err := e.users.List(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if after.Total != before.Total+1 {
		t.Fatalf("total %d -> %d, list cache not invalidated", before.Total, after.Total)
	}
}

func TestUpdateUserTunnelsMethodOverride(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// The fake backend rejects multipart updates without _method=PUT, so a
	// plain success proves the override field went out.
	user, err := e.users.Update(ctx, "2", UserInput{Fields: map[string]string{
		"first_name": "Renamed",
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.FirstName == nil || *user.FirstName != "Renamed" {
		t.Fatalf("user = %+v", user)
	}
}

func TestDeleteUserDropsCaches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.users.Get(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if err := e.users.Delete(ctx, "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := e.cache.Peek("users/2"); ok {
		t.Fatal("item cache survived delete")
	}
}

func TestAdminsScopeIsSeparate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admins, err := e.admins.List(ctx, query.NewParams(10))
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	if len(admins.Data) != 1 || admins.Data[0].Role != "super_admin" {
		t.Fatalf("admins = %+v", admins.Data)
	}
	if got := e.backend.CountRequests("GET", "/admins"); got != 1 {
		t.Fatalf("admin requests = %d", got)
	}
}

func TestEventsForUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.events.AttachUsers(ctx, 1, []int{2}); err != nil {
		t.Fatal(err)
	}
	resp, err := e.users.EventsForUser(ctx, "2")
	if err != nil {
		t.Fatalf("events for user: %v", err)
	}
	if resp.Events.Total != 1 {
		t.Fatalf("events total = %d", resp.Events.Total)
	}
}
