package services

import (
	"context"
	"fmt"

	"eventadmin-client-go/internal/api"
)

// Exports downloads the CSV reports. No caching here: exports are always
// generated fresh by the server.
type Exports struct {
	client *api.Client
}

func NewExports(client *api.Client) *Exports {
	return &Exports{client: client}
}

// UsersWithEventCount exports all users with their attendance counts.
func (s *Exports) UsersWithEventCount(ctx context.Context) (*api.Blob, string, error) {
	fallback := api.TimestampedFilename("users_event_attendance", "csv")
	return s.download(ctx, "/users/export/csv/with-event-count", fallback)
}

// UserInfo exports a single user's detailed record.
func (s *Exports) UserInfo(ctx context.Context, userID string) (*api.Blob, string, error) {
	fallback := api.TimestampedFilename("user_"+userID+"_info", "csv")
	return s.download(ctx, "/users/"+userID+"/export/csv", fallback)
}

// EventAttendees exports one event's roster.
func (s *Exports) EventAttendees(ctx context.Context, eventID int) (*api.Blob, string, error) {
	fallback := api.TimestampedFilename(fmt.Sprintf("event_%d_attendees", eventID), "csv")
	return s.download(ctx, fmt.Sprintf("/events/%d/export/csv/attendees", eventID), fallback)
}

// download fetches the report; the filename honors Content-Disposition and
// falls back to a dated name when the header is absent.
func (s *Exports) download(ctx context.Context, path, fallback string) (*api.Blob, string, error) {
	blob, err := s.client.DoBlob(ctx, "GET", path)
	if err != nil {
		return nil, "", err
	}
	return blob, blob.SuggestedFilename(fallback), nil
}
