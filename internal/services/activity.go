package services

import (
	"context"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"
)

// Activity reads the audit log. Records are immutable, so there is no
// mutation side.
type Activity struct {
	client *api.Client
	cache  *query.Cache
}

func NewActivity(client *api.Client, cache *query.Cache) *Activity {
	return &Activity{client: client, cache: cache}
}

func (s *Activity) List(ctx context.Context, p query.Params) (*models.Page[models.ActivityLog], error) {
	return query.Fetch(ctx, s.cache, p.Key("activity-logs"), func(ctx context.Context) (*models.Page[models.ActivityLog], error) {
		var page models.Page[models.ActivityLog]
		if err := s.client.DoJSON(ctx, "GET", "/activity-logs?"+p.QueryString(), nil, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}
