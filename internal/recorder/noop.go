package recorder

// NoopRecorder is a no-op implementation used when metrics are disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunEvent)          {}
func (n *NoopRecorder) RecordFetch(_ *FetchEvent)      {}
func (n *NoopRecorder) RecordRate(_ string, _ float64) {}

