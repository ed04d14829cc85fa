package apitest

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"eventadmin-client-go/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	matched := filterUsers(s.users, r)
	s.mu.Unlock()
	sortUsers(matched, r.URL.Query().Get("sort"), r.URL.Query().Get("direction"))
	page := paginate(matched, queryInt(r, "page", 1), queryInt(r, "per_page", 10), "/users")
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	admins := []models.User{s.admin}
	s.mu.Unlock()
	admins = filterUsers(admins, r)
	page := paginate(admins, queryInt(r, "page", 1), queryInt(r, "per_page", 10), "/admins")
	WriteJSON(w, http.StatusOK, page)
}

func filterUsers(users []models.User, r *http.Request) []models.User {
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	matched := make([]models.User, 0, len(users))
	for _, user := range users {
		if search != "" {
			haystack := strings.ToLower(user.FullName())
			if user.Email != nil {
				haystack += " " + strings.ToLower(*user.Email)
			}
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, user)
	}
	return matched
}

func sortUsers(users []models.User, field, direction string) {
	if field == "" {
		return
	}
	desc := direction == "desc"
	sort.SliceStable(users, func(i, j int) bool {
		a, b := userSortKey(users[i], field), userSortKey(users[j], field)
		if desc {
			return a > b
		}
		return a < b
	})
}

func userSortKey(user models.User, field string) string {
	switch field {
	case "first_name":
		if user.FirstName != nil {
			return strings.ToLower(*user.FirstName)
		}
	case "last_name":
		if user.LastName != nil {
			return strings.ToLower(*user.LastName)
		}
	case "email":
		if user.Email != nil {
			return strings.ToLower(*user.Email)
		}
	case "created_at":
		return user.CreatedAt
	}
	return ""
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.findUserLocked(chi.URLParam(r, "userId"))
	if user == nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, *user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	user := userFromForm(models.User{
		ID:        intID(id),
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, r)
	s.users = append(s.users, user)
	s.mu.Unlock()
	WriteJSON(w, http.StatusOK, user)
}

// updateUser only honors tunneled PUTs: a bare multipart POST without the
// override field is rejected the way the real backend rejects it.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if r.FormValue("_method") != "PUT" {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.findUserLocked(chi.URLParam(r, "userId"))
	if user == nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	*user = userFromForm(*user, r)
	user.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	WriteJSON(w, http.StatusOK, *user)
}

func userFromForm(user models.User, r *http.Request) models.User {
	assign := func(dst **string, field string) {
		if value := r.FormValue(field); value != "" {
			v := value
			*dst = &v
		}
	}
	assign(&user.FirstName, "first_name")
	assign(&user.LastName, "last_name")
	assign(&user.MiddleInitial, "middle_initial")
	assign(&user.Email, "email")
	assign(&user.ContactNumber, "contact_number")
	assign(&user.HomeAddress, "home_address")
	assign(&user.ChurchName, "church_name")
	assign(&user.WorkingOrStudent, "working_or_student")
	assign(&user.VocationSphere, "vocation_work_sphere")
	if r.MultipartForm != nil {
		if _, ok := r.MultipartForm.File["profile_image"]; ok {
			image := "/media/profile/" + user.ID
			user.ProfileImage = &image
		}
	}
	return user
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "userId")
	for i, user := range s.users {
		if user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "User not found")
}

func (s *Server) eventsForUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.findUserLocked(chi.URLParam(r, "userId"))
	if user == nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	userID := atoi(user.ID)
	attended := []models.Event{}
	for _, event := range s.events {
		if s.roster[event.ID][userID] {
			attended = append(attended, event)
		}
	}
	resp := models.EventsForUser{Message: "Events retrieved successfully"}
	resp.User.ID = userID
	resp.User.Name = user.FullName()
	if user.Email != nil {
		resp.User.Email = *user.Email
	}
	resp.Events = *paginate(attended, queryInt(r, "page", 1), queryInt(r, "per_page", 10), "/users/"+user.ID+"/events")
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) findUserLocked(id string) *models.User {
	if s.admin.ID == id {
		return &s.admin
	}
	for i := range s.users {
		if s.users[i].ID == id {
			return &s.users[i]
		}
	}
	return nil
}
