// Package broadcast delivers group-scoped events to connected clients.
//
// Publishing is fire-and-forget: a Sink never blocks the caller and never
// returns an error, so a failed delivery cannot undo a committed mutation.
package broadcast

import "sync"

// Event names a broadcast message.
type Event string

const (
	EventNewMember            Event = "new-member"
	EventNewExpense           Event = "new-expense"
	EventPaymentStatusChanged Event = "payment-status-changed"
	EventProofAttached        Event = "proof-attached"
)

// Sink publishes an event to every subscriber of a group.
type Sink interface {
	Publish(groupID string, event Event, payload any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(string, Event, any) {}

// Message is one published event.
type Message struct {
	GroupID string
	Event   Event
	Payload any
}

// Recorder keeps every published message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(groupID string, event Event, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{GroupID: groupID, Event: event, Payload: payload})
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Events returns the recorded event names for groupID, in publish order.
func (r *Recorder) Events(groupID string) []Event {
	var events []Event
	for _, m := range r.Messages() {
		if m.GroupID == groupID {
			events = append(events, m.Event)
		}
	}
	return events
}
