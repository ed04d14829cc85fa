package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/config"
	"eventadmin-client-go/internal/query"
	"eventadmin-client-go/internal/services"

	"github.com/joho/godotenv"
)

type app struct {
	cfg     config.Config
	session *api.Session
	users   *services.Users
	admins  *services.Users
	events  *services.Events
	files   *services.Files
	logs    *services.Activity
	stats   *services.Stats
	exports *services.Exports
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := setupLogger()
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	tokens := api.NewTokenStore(cfg.TokenPath)
	client := api.NewClient(cfg.APIBaseURL, tokens, cfg.RequestTimeout)
	cache := query.NewCache(cfg.CacheFreshness)
	session := api.NewSession(client, tokens, cfg.LandingPath)
	session.OnLogin = func(landing string) {
		fmt.Printf("Logged in. Landing at %s\n", landing)
	}
	session.OnLogout = func() {
		fmt.Println("Logged out.")
	}
	session.OnExpired = func() {
		log.Printf("session expired, local token cleared")
	}

	a := &app{
		cfg:     cfg,
		session: session,
		users:   services.NewUsers(client, cache),
		admins:  services.NewAdmins(client, cache),
		events:  services.NewEvents(client, cache),
		files:   services.NewFiles(client, cache),
		logs:    services.NewActivity(client, cache),
		stats:   services.NewStats(client, cache),
		exports: services.NewExports(client),
	}

	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage renders an error the way a mutation toast would: the server's
// message when there is one, a connectivity line for transport failures.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if api.IsNetworkError(err) {
		return "could not reach the server, check your connection"
	}
	return err.Error()
}

func setupLogger() (func(), error) {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	cleanupOldLogs(logDir, 7)
	return func() { _ = file.Close() }, nil
}

func cleanupOldLogs(logDir string, retentionDays int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
