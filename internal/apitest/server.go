package apitest

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"eventadmin-client-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Server is an in-memory stand-in for the profiling backend, close enough
// for the client packages to test auth, pagination, reconciliation and
// export behavior against real HTTP.
type Server struct {
	Secret []byte
	Issuer string

	// Knobs for failure-path tests.
	FailStatusChange bool
	OmitDisposition  bool

	mu       sync.Mutex
	admin    models.User
	password []byte
	users    []models.User
	events   []models.Event
	roster   map[int]map[int]bool
	files    map[string][]models.UserFile
	contents map[int][]byte
	logs     []models.ActivityLog
	nextFile int
	nextID   int
	requests []string
}

// AdminEmail / AdminPassword are the seeded credentials.
const (
	AdminEmail    = "a@b.com"
	AdminPassword = "secret"
)

func New() *Server {
	hash, _ := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	s := &Server{
		Secret:   []byte("apitest-secret"),
		Issuer:   "eventadmin-test",
		password: hash,
		roster:   map[int]map[int]bool{},
		files:    map[string][]models.UserFile{},
		contents: map[int][]byte{},
		nextFile: 100,
		nextID:   100,
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	s.admin = seedUser(1, "Ada", "Reyes", models.RoleSuperAdmin)
	for i := 2; i <= 26; i++ {
		s.users = append(s.users, seedUser(i, firstNames[i%len(firstNames)], lastNames[i%len(lastNames)], models.RoleUser))
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for i := 1; i <= 3; i++ {
		s.events = append(s.events, models.Event{
			ID:          i,
			Name:        []string{"Spring Conference", "Leaders Summit", "Harvest Gathering"}[i-1],
			Description: "seeded event",
			Location:    "Main Hall",
			Status:      models.EventUpcoming,
			StartTime:   now,
			EndTime:     now,
			CreatedBy:   models.EventCreator{ID: "1", FirstName: "Ada", LastName: "Reyes"},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		s.roster[i] = map[int]bool{}
	}
}

var (
	firstNames = []string{"Liza", "Marco", "June", "Paolo", "Grace", "Noel", "Iris"}
	lastNames  = []string{"Santos", "Cruz", "Lim", "Garcia", "Reyes", "Tan"}
)

func seedUser(id int, first, last, role string) models.User {
	now := time.Now().UTC().Format(time.RFC3339)
	email := strings.ToLower(first + "." + last + "@example.test")
	return models.User{
		ID:        intID(id),
		FirstName: &first,
		LastName:  &last,
		Email:     &email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IssueToken mints a bearer token the middleware accepts; tests seed token
// stores with it to simulate a previously logged-in process.
func (s *Server) IssueToken(ttl time.Duration) string {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": s.Issuer,
		"sub": s.admin.ID,
		"typ": "access",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	return signed
}

// CountRequests returns how many requests matched the method and URI prefix.
func (s *Server) CountRequests(method, prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, line := range s.requests {
		if strings.HasPrefix(line, method+" "+prefix) {
			count++
		}
	}
	return count
}

// Roster returns a copy of an event's attendee id set.
func (s *Server) Roster(eventID int) map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]bool{}
	for id := range s.roster[eventID] {
		out[id] = true
	}
	return out
}

// EventStatus reads an event's current status.
func (s *Server) EventStatus(eventID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.events {
		if event.ID == eventID {
			return event.Status
		}
	}
	return ""
}

// SeedFile registers a stored file for a user and returns it.
func (s *Server) SeedFile(userID, name, contentType string, data []byte) models.UserFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addFileLocked(userID, name, contentType, data)
}

func (s *Server) addFileLocked(userID, name, contentType string, data []byte) models.UserFile {
	s.nextFile++
	now := time.Now().UTC().Format(time.RFC3339)
	file := models.UserFile{
		ID:         s.nextFile,
		UserID:     atoi(userID),
		FileName:   name,
		FilePath:   "storage/files/" + name,
		FileURL:    "/users/" + userID + "/files/" + name,
		FileType:   contentType,
		FileSize:   int64(len(data)),
		UploadedBy: s.admin.FullName(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.files[userID] = append(s.files[userID], file)
	s.contents[file.ID] = data
	return file
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/login", s.handleLogin)

	r.Group(func(auth chi.Router) {
		auth.Use(s.withAuth)
		auth.Post("/logout", s.handleLogout)
		auth.Get("/me", s.handleMe)

		auth.Get("/users", s.listUsers)
		auth.Post("/users", s.createUser)
		auth.Get("/users/export/csv/with-event-count", s.exportUsers)
		auth.Get("/users/{userId}", s.getUser)
		auth.Post("/users/{userId}", s.updateUser)
		auth.Delete("/users/{userId}", s.deleteUser)
		auth.Get("/users/{userId}/events", s.eventsForUser)
		auth.Get("/users/{userId}/export/csv", s.exportUserInfo)
		auth.Get("/users/{userId}/files", s.listFiles)
		auth.Post("/users/{userId}/files/upload", s.uploadFiles)
		auth.Delete("/users/{userId}/files/bulk-delete", s.bulkDeleteFiles)
		auth.Get("/users/{userId}/files/{fileId}/download", s.downloadFile)
		auth.Delete("/users/{userId}/files/{fileId}", s.deleteFile)

		auth.Get("/admins", s.listAdmins)

		auth.Get("/events", s.listEvents)
		auth.Post("/events", s.createEvent)
		auth.Get("/events/{eventId}", s.getEvent)
		auth.Put("/events/{eventId}", s.updateEvent)
		auth.Delete("/events/{eventId}", s.deleteEvent)
		auth.Patch("/events/{eventId}/status", s.changeStatus)
		auth.Post("/events/{eventId}/users", s.attachUsers)
		auth.Delete("/events/{eventId}/users", s.detachUsers)
		auth.Get("/events/{eventId}/export/csv/attendees", s.exportAttendees)

		auth.Get("/activity-logs", s.listLogs)
		auth.Get("/stats/events/{eventId}/sphere-stats", s.sphereStats)
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return s.Secret, nil
		}, jwt.WithIssuer(s.Issuer))
		if err != nil || !token.Valid || claims["typ"] != "access" {
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
