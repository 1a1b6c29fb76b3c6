package api

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// MinServerVersion is the oldest backend API this client understands.
const MinServerVersion = "v0.1.0"

// ServiceInfo is the backend's root document.
type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Compatible reports whether the backend version is at least
// MinServerVersion.
func (s ServiceInfo) Compatible() (bool, error) {
	v := canonical(s.Version)
	if !semver.IsValid(v) {
		return false, fmt.Errorf("invalid server version %q", s.Version)
	}
	return semver.Compare(v, MinServerVersion) >= 0, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ServiceInfo fetches the backend's root document. It is never cached.
func (c *Client) ServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.send(ctx, "GET", "/", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
