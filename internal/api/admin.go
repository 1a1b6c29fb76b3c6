package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
)

// AdminStats are the platform totals.
type AdminStats struct {
	TotalUsers     int `json:"total_users"`
	TotalTopics    int `json:"total_topics"`
	TotalQuestions int `json:"total_questions"`
}

// AnalyticsReports names the admin analytics endpoints.
var AnalyticsReports = []string{
	"topic-views",
	"daily-views",
	"user-activity",
	"suggested-topics",
	"weekly-growth",
	"test-performance",
}

// AdminStats returns platform totals. Requires an admin account.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	if err := c.getJSON(ctx, "/api/admin/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AdminUsers lists every account, newest first.
func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Analytics returns one analytics report as raw JSON; the report shapes
// differ per name.
func (c *Client) Analytics(ctx context.Context, name string) (json.RawMessage, error) {
	if !slices.Contains(AnalyticsReports, name) {
		return nil, fmt.Errorf("unknown analytics report %q", name)
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/admin/analytics/"+url.PathEscape(name), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
