package services

import (
	"context"
	"fmt"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"
)

// Stats exposes the per-event vocation sphere breakdown.
type Stats struct {
	client *api.Client
	cache  *query.Cache
}

func NewStats(client *api.Client, cache *query.Cache) *Stats {
	return &Stats{client: client, cache: cache}
}

func (s *Stats) SphereStats(ctx context.Context, eventID int) (*models.SphereStatsResponse, error) {
	key := fmt.Sprintf("stats/event/%d/spheres", eventID)
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.SphereStatsResponse, error) {
		var resp models.SphereStatsResponse
		path := fmt.Sprintf("/stats/events/%d/sphere-stats", eventID)
		if err := s.client.DoJSON(ctx, "GET", path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}
