package shared

import (
	"fmt"
	"time"
)

// ParseTimestamp parses an ISO8601 timestamp as returned by the API
func ParseTimestamp(timestamp string) (time.Time, error) {
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("timestamp cannot be empty")
	}
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %w", err)
	}
	return t.UTC(), nil
}

// WaitUntil returns how long to wait from now until deadline plus margin.
// Never negative.
func WaitUntil(now, deadline time.Time, margin time.Duration) time.Duration {
	wait := deadline.Sub(now) + margin
	if wait < 0 {
		return 0
	}
	return wait
}
