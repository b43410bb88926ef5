package events

// Recorder buffers emitted events so callers can forward them only after the
// surrounding state mutation has committed. Events recorded during a failed
// invocation are simply dropped with the rest of the staged work.
type Recorder struct {
	events []*Event
}

// NewRecorder returns an empty event buffer.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt *Event) {
	if r == nil || evt == nil {
		return
	}
	r.events = append(r.events, evt)
}

// Events returns the buffered events in emission order.
func (r *Recorder) Events() []*Event {
	if r == nil {
		return nil
	}
	return r.events
}

// FlushTo forwards all buffered events to the supplied emitter and clears the
// buffer. A nil emitter drops the buffered events.
func (r *Recorder) FlushTo(sink Emitter) {
	if r == nil {
		return
	}
	if sink != nil {
		for _, evt := range r.events {
			sink.Emit(evt)
		}
	}
	r.events = nil
}
