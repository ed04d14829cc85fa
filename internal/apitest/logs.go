package apitest

import (
	"encoding/json"
	"net/http"
	"time"

	"eventadmin-client-go/internal/models"
)

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	logs := make([]models.ActivityLog, len(s.logs))
	copy(logs, s.logs)
	s.mu.Unlock()
	page := paginate(logs, queryInt(r, "page", 1), queryInt(r, "per_page", 10), "/activity-logs")
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) logAction(action, modelType string, modelID int, oldValues, newValues map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLocked(action, modelType, modelID, oldValues, newValues)
}

func (s *Server) logLocked(action, modelType string, modelID int, oldValues, newValues map[string]any) {
	now := time.Now().UTC().Format(time.RFC3339)
	entry := models.ActivityLog{
		ID:        len(s.logs) + 1,
		AdminID:   atoi(s.admin.ID),
		Action:    action,
		ModelType: modelType,
		ModelID:   modelID,
		IPAddress: "127.0.0.1",
		UserAgent: "apitest",
		CreatedAt: now,
		UpdatedAt: now,
		Admin: &models.AdminActor{
			ID:    atoi(s.admin.ID),
			Name:  s.admin.FullName(),
			Email: AdminEmail,
		},
	}
	entry.OldValues = logValues(oldValues)
	entry.NewValues = logValues(newValues)
	s.logs = append(s.logs, entry)
}

func logValues(fields map[string]any) *models.LogValues {
	if fields == nil {
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	values := &models.LogValues{}
	if err := values.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return values
}
