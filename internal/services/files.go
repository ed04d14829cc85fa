package services

import (
	"context"
	"encoding/json"
	"fmt"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"
)

// Files manages one user's attached files.
type Files struct {
	client *api.Client
	cache  *query.Cache
}

func NewFiles(client *api.Client, cache *query.Cache) *Files {
	return &Files{client: client, cache: cache}
}

func (s *Files) listKey(userID string) string {
	return "user/" + userID + "/files"
}

// List returns the user's files. Older backend builds return a bare array,
// newer ones wrap it in {"files": [...]}; both decode.
func (s *Files) List(ctx context.Context, userID string) ([]models.UserFile, error) {
	return query.Fetch(ctx, s.cache, s.listKey(userID), func(ctx context.Context) ([]models.UserFile, error) {
		var raw json.RawMessage
		if err := s.client.DoJSON(ctx, "GET", "/users/"+userID+"/files", nil, &raw); err != nil {
			return nil, err
		}
		var files []models.UserFile
		if err := json.Unmarshal(raw, &files); err == nil {
			return files, nil
		}
		var wrapped struct {
			Files []models.UserFile `json:"files"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, api.WrapError(err, "decode file list")
		}
		return wrapped.Files, nil
	})
}

// Upload sends every file in one multipart request, each under its own
// indexed files[i] field.
func (s *Files) Upload(ctx context.Context, userID string, uploads []Upload) error {
	if len(uploads) == 0 {
		return &api.Error{Status: 400, Message: "no files selected"}
	}
	form := api.NewForm()
	for i, upload := range uploads {
		form.AddFile(fmt.Sprintf("files[%d]", i), upload.Name, upload.Content)
	}
	if err := s.client.DoJSON(ctx, "POST", "/users/"+userID+"/files/upload", form, nil); err != nil {
		return err
	}
	s.cache.Invalidate(s.listKey(userID))
	return nil
}

func (s *Files) Delete(ctx context.Context, userID string, fileID int) error {
	path := fmt.Sprintf("/users/%s/files/%d", userID, fileID)
	if err := s.client.DoJSON(ctx, "DELETE", path, nil, nil); err != nil {
		return err
	}
	s.cache.Invalidate(s.listKey(userID))
	return nil
}

// BulkDelete removes several files in a single request and patches the
// cached list so the ids disappear without a refetch.
func (s *Files) BulkDelete(ctx context.Context, userID string, fileIDs []int) error {
	if len(fileIDs) == 0 {
		return &api.Error{Status: 400, Message: "no files selected"}
	}
	body := map[string][]int{"file_ids": fileIDs}
	if err := s.client.DoJSON(ctx, "DELETE", "/users/"+userID+"/files/bulk-delete", body, nil); err != nil {
		return err
	}
	deleted := make(map[int]bool, len(fileIDs))
	for _, id := range fileIDs {
		deleted[id] = true
	}
	s.cache.Update(s.listKey(userID), func(_ string, value any) (any, bool) {
		files, ok := value.([]models.UserFile)
		if !ok {
			return nil, false
		}
		kept := make([]models.UserFile, 0, len(files))
		for _, file := range files {
			if !deleted[file.ID] {
				kept = append(kept, file)
			}
		}
		return kept, len(kept) != len(files)
	})
	return nil
}

// Download fetches the file body; the name comes from Content-Disposition
// when the server sends one.
func (s *Files) Download(ctx context.Context, userID string, fileID int, fallbackName string) (*api.Blob, string, error) {
	path := fmt.Sprintf("/users/%s/files/%d/download", userID, fileID)
	blob, err := s.client.DoBlob(ctx, "GET", path)
	if err != nil {
		return nil, "", err
	}
	return blob, blob.SuggestedFilename(fallbackName), nil
}
