package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"eventadmin-client-go/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := chi.URLParam(r, "userId")
	files := s.files[userID]
	if files == nil {
		files = []models.UserFile{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	userID := chi.URLParam(r, "userId")
	uploaded := 0
	s.mu.Lock()
	for field, headers := range r.MultipartForm.File {
		var index int
		if _, err := fmt.Sscanf(field, "files[%d]", &index); err != nil {
			continue
		}
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				continue
			}
			record := s.addFileLocked(userID, header.Filename, header.Header.Get("Content-Type"), data)
			s.logLocked("file_upload", "UserFile", record.ID, nil, map[string]any{"file_name": record.FileName})
			uploaded++
		}
	}
	s.mu.Unlock()
	if uploaded == 0 {
		WriteError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bulkDeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs []int `json:"file_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.FileIDs) == 0 {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	doomed := map[int]bool{}
	for _, id := range req.FileIDs {
		doomed[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := chi.URLParam(r, "userId")
	kept := s.files[userID][:0]
	for _, file := range s.files[userID] {
		if doomed[file.ID] {
			delete(s.contents, file.ID)
			continue
		}
		kept = append(kept, file)
	}
	s.files[userID] = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := chi.URLParam(r, "userId")
	fileID := atoi(chi.URLParam(r, "fileId"))
	for i, file := range s.files[userID] {
		if file.ID == fileID {
			s.files[userID] = append(s.files[userID][:i], s.files[userID][i+1:]...)
			delete(s.contents, fileID)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "File not found")
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := chi.URLParam(r, "userId")
	fileID := atoi(chi.URLParam(r, "fileId"))
	for _, file := range s.files[userID] {
		if file.ID != fileID {
			continue
		}
		w.Header().Set("Content-Type", file.FileType)
		if !s.OmitDisposition {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
		}
		_, _ = w.Write(s.contents[fileID])
		return
	}
	WriteError(w, http.StatusNotFound, "File not found")
}
