package services

import (
	"context"
	"fmt"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
)

// attachPayload picks the request shape by cardinality: the backend expects
// user_id for exactly one id and user_ids for several. A convention of the
// wire format, not a semantic difference.
func attachPayload(userIDs []int) map[string]any {
	if len(userIDs) == 1 {
		return map[string]any{"user_id": userIDs[0]}
	}
	return map[string]any{"user_ids": userIDs}
}

// AttachUsers adds users to the event roster. The returned counters are
// ground truth: ids already on the roster are excluded from NewlyAttached
// without failing the call, so the caller must not assume its selection
// equals the newly-affected set.
func (s *Events) AttachUsers(ctx context.Context, eventID int, userIDs []int) (*models.AttachResult, error) {
	if len(userIDs) == 0 {
		return nil, &api.Error{Status: 400, Message: "no users selected"}
	}
	var result models.AttachResult
	path := fmt.Sprintf("/events/%d/users", eventID)
	if err := s.client.DoJSON(ctx, "POST", path, attachPayload(userIDs), &result); err != nil {
		return nil, err
	}
	s.applyRosterSnapshot(eventID, &result.Event)
	return &result, nil
}

// DetachUsers removes users from the roster; ids not on the roster count as
// NotAttached and leave ActuallyDetached untouched.
func (s *Events) DetachUsers(ctx context.Context, eventID int, userIDs []int) (*models.DetachResult, error) {
	if len(userIDs) == 0 {
		return nil, &api.Error{Status: 400, Message: "no users selected"}
	}
	var result models.DetachResult
	path := fmt.Sprintf("/events/%d/users", eventID)
	if err := s.client.DoJSON(ctx, "DELETE", path, attachPayload(userIDs), &result); err != nil {
		return nil, err
	}
	s.applyRosterSnapshot(eventID, &result.Event)
	return &result, nil
}

// applyRosterSnapshot writes the authoritative post-operation event through
// the cache: parameterized detail entries are dropped, the default detail
// view gets the snapshot directly, and the list scope refetches on next read.
func (s *Events) applyRosterSnapshot(eventID int, event *models.Event) {
	s.cache.InvalidatePrefix(fmt.Sprintf("event/%d?", eventID))
	s.cache.Put(s.detailKey(eventID, AttendeeQuery{}), event)
	s.cache.InvalidatePrefix("events?")
}
