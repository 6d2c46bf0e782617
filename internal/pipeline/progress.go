package pipeline

// Progress is an observation-only checkpoint emitted during processing.
// It never affects control flow.
type Progress struct {
	Message string
	Percent int // 0-100
}

// Func receives progress checkpoints. May be nil to disable reporting.
type Func func(Progress)

// Reporter bridges the worker goroutine running the pipeline and the
// interaction goroutine displaying progress. The worker side never blocks:
// sends are non-blocking and checkpoints are dropped when the buffer is
// full. The interaction side drains Updates on its own schedule.
type Reporter struct {
	updates chan Progress
}

// NewReporter creates a Reporter with the given buffer size.
func NewReporter(buffer int) *Reporter {
	if buffer < 1 {
		buffer = 1
	}
	return &Reporter{updates: make(chan Progress, buffer)}
}

// Func returns the callback to hand to the pipeline.
func (r *Reporter) Func() Func {
	return func(p Progress) {
		select {
		case r.updates <- p:
		default:
			// Buffer full; drop rather than stall the worker.
		}
	}
}

// Updates is the channel the interaction side drains.
func (r *Reporter) Updates() <-chan Progress {
	return r.updates
}

// Close signals that no further checkpoints will be sent.
// Call only after the pipeline invocation has returned.
func (r *Reporter) Close() {
	close(r.updates)
}
