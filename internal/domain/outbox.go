package domain

// Outbox buffers domain events on an aggregate until the caller drains
// them. Draining is read-then-clear: each event is handed out exactly
// once per triggering operation. The outbox is not safe for concurrent
// use; the aggregate's single-writer discipline covers it.
type Outbox struct {
	pending []Event
}

// Record appends an event to the buffer.
func (o *Outbox) Record(e Event) {
	o.pending = append(o.pending, e)
}

// Drain returns all buffered events and clears the buffer.
func (o *Outbox) Drain() []Event {
	if len(o.pending) == 0 {
		return nil
	}
	out := o.pending
	o.pending = nil
	return out
}

// Pending reports the number of buffered events.
func (o *Outbox) Pending() int { return len(o.pending) }
