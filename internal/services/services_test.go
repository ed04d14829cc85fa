package services

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/apitest"
	"eventadmin-client-go/internal/query"
)

type env struct {
	backend *apitest.Server
	cache   *query.Cache
	users   *Users
	admins  *Users
	events  *Events
	files   *Files
	logs    *Activity
	stats   *Stats
	exports *Exports
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := apitest.New()
	server := httptest.NewServer(backend.Router())
	t.Cleanup(server.Close)

	tokens := api.NewTokenStore(filepath.Join(t.TempDir(), "token"))
	if err := tokens.Set(backend.IssueToken(time.Hour)); err != nil {
		t.Fatal(err)
	}
	client := api.NewClient(server.URL, tokens, 5*time.Second)
	cache := query.NewCache(time.Minute)
	return &env{
		backend: backend,
		cache:   cache,
		users:   NewUsers(client, cache),
		admins:  NewAdmins(client, cache),
		events:  NewEvents(client, cache),
		files:   NewFiles(client, cache),
		logs:    NewActivity(client, cache),
		stats:   NewStats(client, cache),
		exports: NewExports(client),
	}
}
