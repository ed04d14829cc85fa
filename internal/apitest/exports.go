package apitest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"eventadmin-client-go/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) exportUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	rows := [][]string{{"id", "name", "email", "events_attended"}}
	for _, user := range s.users {
		attended := 0
		for eventID := range s.roster {
			if s.roster[eventID][atoi(user.ID)] {
				attended++
			}
		}
		rows = append(rows, []string{user.ID, user.FullName(), emailOf(user), strconv.Itoa(attended)})
	}
	s.mu.Unlock()
	s.writeCSV(w, "users_event_attendance.csv", rows)
}

func (s *Server) exportUserInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user := s.findUserLocked(chi.URLParam(r, "userId"))
	if user == nil {
		s.mu.Unlock()
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	rows := [][]string{
		{"id", "name", "email", "role", "active"},
		{user.ID, user.FullName(), emailOf(*user), user.Role, strconv.FormatBool(user.IsActive)},
	}
	s.mu.Unlock()
	s.writeCSV(w, fmt.Sprintf("user_%s_info.csv", chi.URLParam(r, "userId")), rows)
}

func (s *Server) exportAttendees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	eventID := atoi(chi.URLParam(r, "eventId"))
	rows := [][]string{{"id", "name", "email"}}
	for _, user := range s.users {
		if s.roster[eventID][atoi(user.ID)] {
			rows = append(rows, []string{user.ID, user.FullName(), emailOf(user)})
		}
	}
	s.mu.Unlock()
	s.writeCSV(w, fmt.Sprintf("event_%d_attendees.csv", eventID), rows)
}

func (s *Server) writeCSV(w http.ResponseWriter, filename string, rows [][]string) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.WriteAll(rows)
	writer.Flush()
	w.Header().Set("Content-Type", "text/csv")
	if !s.OmitDisposition {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	_, _ = w.Write(buf.Bytes())
}

func emailOf(user models.User) string {
	if user.Email == nil {
		return ""
	}
	return *user.Email
}
