package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"eventadmin-client-go/internal/models"
)

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Message: message})
}

func WriteErrorCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, errorResponse{Message: message, Code: code})
}

// paginate slices items into the backend's page envelope.
func paginate[T any](items []T, page, perPage int, path string) *models.Page[T] {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	total := len(items)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	if page > lastPage {
		page = lastPage
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	pageURL := func(n int) *string {
		if n < 1 || n > lastPage {
			return nil
		}
		url := fmt.Sprintf("%s?page=%d", path, n)
		return &url
	}
	from := 0
	if end > start {
		from = start + 1
	}
	return &models.Page[T]{
		CurrentPage:  page,
		Data:         items[start:end],
		FirstPageURL: fmt.Sprintf("%s?page=1", path),
		From:         from,
		LastPage:     lastPage,
		LastPageURL:  fmt.Sprintf("%s?page=%d", path, lastPage),
		NextPageURL:  pageURL(page + 1),
		Path:         path,
		PerPage:      perPage,
		PrevPageURL:  pageURL(page - 1),
		To:           end,
		Total:        total,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return value
}

func atoi(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}

func intID(id int) string {
	return strconv.Itoa(id)
}
