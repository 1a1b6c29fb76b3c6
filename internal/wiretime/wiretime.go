// Package wiretime decodes the backend's timestamps. The backend writes
// naive UTC datetimes ("2026-04-01T10:00:00.123456") as well as RFC 3339.
package wiretime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayout is an ISO 8601 datetime without a zone offset.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Time is a backend timestamp. Values without an offset are read as UTC.
type Time struct {
	time.Time
}

// Parse reads s as RFC 3339, falling back to a zone-less datetime in UTC.
func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// UnmarshalJSON accepts a string timestamp or null.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
