package api

import "time"

// MetricsRecorder receives request pipeline events. The prometheus
// collectors in the metrics package implement it.
type MetricsRecorder interface {
	RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordAPIRetry(reason string)
	RecordRateLimitWait(duration time.Duration)
	RecordQueueLength(length int)
	RecordCacheBypass(hit bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordAPIRequest(string, string, int, time.Duration) {}
func (noopRecorder) RecordAPIRetry(string)                               {}
func (noopRecorder) RecordRateLimitWait(time.Duration)                   {}
func (noopRecorder) RecordQueueLength(int)                               {}
func (noopRecorder) RecordCacheBypass(bool)                              {}
