package cache

// Recorder receives cache events for observability.
// Nothing in the cache depends on what a recorder does.
type Recorder interface {
	Hit(category Category)
	Miss()
	Set(category Category)
	Invalidated(count int)
	Size(entries int)
}

// NoopRecorder ignores all events
type NoopRecorder struct{}

func (NoopRecorder) Hit(Category)    {}
func (NoopRecorder) Miss()           {}
func (NoopRecorder) Set(Category)    {}
func (NoopRecorder) Invalidated(int) {}
func (NoopRecorder) Size(int)        {}
