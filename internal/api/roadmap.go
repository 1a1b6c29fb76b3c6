package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eysh-app/eysh/internal/roadmap"
)

// Roadmap returns the signed-in user's study plan.
func (c *Client) Roadmap(ctx context.Context) (*roadmap.Roadmap, error) {
	var r roadmap.Roadmap
	if err := c.getJSON(ctx, "/api/roadmap", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GenerateRoadmap asks the backend to rebuild the plan from the latest test.
func (c *Client) GenerateRoadmap(ctx context.Context) (*roadmap.Roadmap, error) {
	var r roadmap.Roadmap
	if err := c.send(ctx, http.MethodPost, "/api/roadmap/generate", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CompleteWeek marks a week done and returns overall progress in percent.
func (c *Client) CompleteWeek(ctx context.Context, week int) (float64, error) {
	var out struct {
		Progress float64 `json:"progress"`
	}
	path := fmt.Sprintf("/api/roadmap/%d/progress", week)
	if err := c.send(ctx, http.MethodPatch, path, map[string]any{"progress": 100}, &out); err != nil {
		return 0, err
	}
	return out.Progress, nil
}

// Mentors lists mentors, optionally teaching subject.
func (c *Client) Mentors(ctx context.Context, subject string) ([]roadmap.Mentor, error) {
	var params any
	if subject != "" {
		params = map[string]string{"subject": subject}
	}
	var ms []roadmap.Mentor
	if err := c.getJSON(ctx, "/api/mentoring/mentors", params, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// MentorRequest is the body of a mentorship request.
type MentorRequest struct {
	MentorID string   `json:"mentor_id"`
	Subjects []string `json:"subjects"`
	Message  string   `json:"message,omitempty"`
}

// RequestMentor asks a mentor for mentorship.
func (c *Client) RequestMentor(ctx context.Context, r MentorRequest) (*roadmap.Mentorship, error) {
	if r.Subjects == nil {
		r.Subjects = []string{}
	}
	var m roadmap.Mentorship
	path := "/api/mentoring/request/" + url.PathEscape(r.MentorID)
	if err := c.send(ctx, http.MethodPost, path, r, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MyMentor returns the pending or active mentorship, or nil if there is none.
func (c *Client) MyMentor(ctx context.Context) (*roadmap.Mentorship, error) {
	var m *roadmap.Mentorship
	if err := c.getJSON(ctx, "/api/mentoring/my-mentor", nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}
