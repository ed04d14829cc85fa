package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"

	"github.com/google/uuid"
)

// EventInput is the JSON body of event create/update.
type EventInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// AttendeeQuery parameterizes the paginated roster embedded in the event
// detail response.
type AttendeeQuery struct {
	Page    int
	PerPage int
	Search  string
}

func (q AttendeeQuery) values() url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	return values
}

// StatusChange identifies one optimistic status mutation. Feedback for a
// change is keyed by OperationID so two concurrent changes on different
// rows never clear each other's indicator.
type StatusChange struct {
	OperationID uuid.UUID
	EventID     int
	Status      string
}

// Events queries and mutates events, including the one optimistic mutation
// in the module (status changes) and the attendee roster (attendees.go).
type Events struct {
	client *api.Client
	cache  *query.Cache
}

func NewEvents(client *api.Client, cache *query.Cache) *Events {
	return &Events{client: client, cache: cache}
}

func (s *Events) listKey(p query.Params) string {
	return p.Key("events")
}

func (s *Events) detailKey(id int, q AttendeeQuery) string {
	return fmt.Sprintf("event/%d?%s", id, q.values().Encode())
}

func (s *Events) List(ctx context.Context, p query.Params) (*models.Page[models.Event], error) {
	return query.Fetch(ctx, s.cache, s.listKey(p), func(ctx context.Context) (*models.Page[models.Event], error) {
		var page models.Page[models.Event]
		if err := s.client.DoJSON(ctx, "GET", "/events?"+p.QueryString(), nil, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}

// Get fetches the event detail, attendees paginated by q.
func (s *Events) Get(ctx context.Context, id int, q AttendeeQuery) (*models.Event, error) {
	return query.Fetch(ctx, s.cache, s.detailKey(id, q), func(ctx context.Context) (*models.Event, error) {
		path := fmt.Sprintf("/events/%d", id)
		if qs := q.values().Encode(); qs != "" {
			path += "?" + qs
		}
		var event models.Event
		if err := s.client.DoJSON(ctx, "GET", path, nil, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
}

func (s *Events) Create(ctx context.Context, input EventInput) (*models.Event, error) {
	var event models.Event
	if err := s.client.DoJSON(ctx, "POST", "/events", input, &event); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix("events?")
	return &event, nil
}

func (s *Events) Update(ctx context.Context, id int, input EventInput) (*models.Event, error) {
	var event models.Event
	if err := s.client.DoJSON(ctx, "PUT", fmt.Sprintf("/events/%d", id), input, &event); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix("events?")
	s.cache.InvalidatePrefix(fmt.Sprintf("event/%d?", id))
	return &event, nil
}

func (s *Events) Delete(ctx context.Context, id int) error {
	if err := s.client.DoJSON(ctx, "DELETE", fmt.Sprintf("/events/%d", id), nil, nil); err != nil {
		return err
	}
	s.cache.InvalidatePrefix("events?")
	s.cache.InvalidatePrefix(fmt.Sprintf("event/%d?", id))
	return nil
}

// ChangeStatus patches every cached events page before the request goes
// out, so the new status shows without waiting for the round-trip. On
// failure the list scope is invalidated and the next read reconciles to the
// server's value; the optimistic status never survives a failed call.
func (s *Events) ChangeStatus(ctx context.Context, eventID int, status string) (StatusChange, error) {
	change := StatusChange{OperationID: uuid.New(), EventID: eventID, Status: status}
	if !models.ValidEventStatus(status) {
		return change, &api.Error{Status: 400, Message: "invalid event status: " + status}
	}

	s.cache.Update("events?", func(_ string, value any) (any, bool) {
		page, ok := value.(*models.Page[models.Event])
		if !ok {
			return nil, false
		}
		patched := *page
		patched.Data = make([]models.Event, len(page.Data))
		copy(patched.Data, page.Data)
		changed := false
		for i := range patched.Data {
			if patched.Data[i].ID == eventID {
				patched.Data[i].Status = status
				changed = true
			}
		}
		return &patched, changed
	})

	body := map[string]string{"status": status}
	if err := s.client.DoJSON(ctx, "PATCH", fmt.Sprintf("/events/%d/status", eventID), body, nil); err != nil {
		s.cache.InvalidatePrefix("events?")
		return change, err
	}
	return change, nil
}
