package apitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eventadmin-client-go/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := make([]models.Event, len(s.events))
	copy(events, s.events)
	for i := range events {
		events[i].UsersCount = len(s.roster[events[i].ID])
	}
	s.mu.Unlock()
	page := paginate(events, queryInt(r, "page", 1), queryInt(r, "per_page", 10), "/events")
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	snapshot := s.eventSnapshotLocked(*event, queryInt(r, "page", 1), queryInt(r, "per_page", 10), r.URL.Query().Get("search"))
	WriteJSON(w, http.StatusOK, snapshot)
}

// eventSnapshotLocked renders an event with its attendee roster paginated.
func (s *Server) eventSnapshotLocked(event models.Event, page, perPage int, search string) models.Event {
	attendees := []models.User{}
	search = strings.ToLower(strings.TrimSpace(search))
	for i := range s.users {
		if !s.roster[event.ID][atoi(s.users[i].ID)] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.users[i].FullName()), search) {
			continue
		}
		attendees = append(attendees, s.users[i])
	}
	event.UsersCount = len(s.roster[event.ID])
	event.Users = paginate(attendees, page, perPage, "/events")
	return event
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	s.mu.Lock()
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	event := models.Event{
		ID:          s.nextID,
		Name:        input.Name,
		Description: input.Description,
		Location:    input.Location,
		Status:      models.EventUpcoming,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		CreatedBy:   models.EventCreator{ID: s.admin.ID, FirstName: "Ada", LastName: "Reyes"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.events = append(s.events, event)
	s.roster[event.ID] = map[int]bool{}
	s.mu.Unlock()
	WriteJSON(w, http.StatusOK, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	event.Name = input.Name
	event.Description = input.Description
	event.Location = input.Location
	event.StartTime = input.StartTime
	event.EndTime = input.EndTime
	event.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	WriteJSON(w, http.StatusOK, *event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := atoi(chi.URLParam(r, "eventId"))
	for i, event := range s.events {
		if event.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			delete(s.roster, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "Event not found")
}

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request) {
	if s.FailStatusChange {
		WriteError(w, http.StatusInternalServerError, "Status update failed")
		return
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || !models.ValidEventStatus(input.Status) {
		WriteError(w, http.StatusUnprocessableEntity, "Invalid status")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	event.Status = input.Status
	w.WriteHeader(http.StatusNoContent)
}

type attachRequest struct {
	UserID  *int  `json:"user_id"`
	UserIDs []int `json:"user_ids"`
}

func (req attachRequest) ids() []int {
	if req.UserID != nil {
		return []int{*req.UserID}
	}
	return req.UserIDs
}

func (s *Server) attachUsers(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ids()) == 0 {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	stats := models.AttachStats{TotalAttempted: len(req.ids())}
	for _, id := range req.ids() {
		if s.roster[event.ID][id] {
			stats.AlreadyAttached++
			continue
		}
		s.roster[event.ID][id] = true
		stats.NewlyAttached++
	}
	stats.TotalAttendees = len(s.roster[event.ID])
	WriteJSON(w, http.StatusOK, models.AttachResult{
		Message: "Users attached successfully",
		Event:   s.eventSnapshotLocked(*event, 1, 10, ""),
		Stats:   stats,
	})
}

func (s *Server) detachUsers(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ids()) == 0 {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	stats := models.DetachStats{TotalAttempted: len(req.ids())}
	for _, id := range req.ids() {
		if !s.roster[event.ID][id] {
			stats.NotAttached++
			continue
		}
		delete(s.roster[event.ID], id)
		stats.ActuallyDetached++
	}
	stats.TotalAttendees = len(s.roster[event.ID])
	WriteJSON(w, http.StatusOK, models.DetachResult{
		Message: "Users detached successfully",
		Event:   s.eventSnapshotLocked(*event, 1, 10, ""),
		Stats:   stats,
	})
}

func (s *Server) sphereStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := s.findEventLocked(atoi(chi.URLParam(r, "eventId")))
	if event == nil {
		WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	counts := map[string]int{}
	total := 0
	for i := range s.users {
		if !s.roster[event.ID][atoi(s.users[i].ID)] {
			continue
		}
		total++
		sphere := "none"
		if s.users[i].VocationSphere != nil {
			sphere = *s.users[i].VocationSphere
		}
		counts[sphere]++
	}
	resp := models.SphereStatsResponse{
		EventID:    event.ID,
		EventName:  event.Name,
		TotalUsers: total,
	}
	sphereID := 0
	for name, count := range counts {
		sphereID++
		id := sphereID
		pct := 0.0
		if total > 0 {
			pct = float64(count) * 100 / float64(total)
		}
		stat := models.SphereStat{
			SphereID:   &id,
			SphereName: name,
			SphereSlug: strings.ToLower(name),
			UserCount:  count,
			Percentage: pct,
		}
		resp.SphereStats = append(resp.SphereStats, stat)
		if resp.Summary.MostPopularSphere == nil || count > resp.Summary.MostPopularSphere.UserCount {
			popular := stat
			resp.Summary.MostPopularSphere = &popular
		}
	}
	resp.Summary.TotalSpheresRepresented = len(counts)
	resp.Summary.UsersWithoutSpheres = counts["none"]
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) findEventLocked(id int) *models.Event {
	for i := range s.events {
		if s.events[i].ID == id {
			return &s.events[i]
		}
	}
	return nil
}
