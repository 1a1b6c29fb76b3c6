package api

import (
	"context"
	"net/url"
)

// TopicContent is the study material for one topic.
type TopicContent struct {
	Topic      string `json:"topic"`
	Title      string `json:"title"`
	YouTubeID  string `json:"youtube_id"`
	Summary    string `json:"summary"`
	Difficulty string `json:"difficulty"`
}

// VideoURL links the topic's video, if any.
func (t TopicContent) VideoURL() string {
	if t.YouTubeID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(t.YouTubeID)
}

// Topic returns the material for a topic name. The backend matches partial
// names and falls back to a generic page.
func (c *Client) Topic(ctx context.Context, name string) (*TopicContent, error) {
	var t TopicContent
	if err := c.getJSON(ctx, "/api/topics/"+url.PathEscape(name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
