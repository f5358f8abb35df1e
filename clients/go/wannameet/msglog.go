package wannameet

import "sync"

// MessageState tracks delivery of an optimistically echoed message.
type MessageState string

const (
	// MessageSent is the optimistic default; incoming messages carry it
	// too since they were, by definition, delivered.
	MessageSent MessageState = "sent"
	// MessageFailed marks a local echo whose publish errored. The entry
	// stays in the log; there is no retry and no rollback.
	MessageFailed MessageState = "failed"
)

// ChatMessage is one log entry. Immutable once appended except for the
// Sent -> Failed flip.
type ChatMessage struct {
	SenderID string
	Text     string
	State    MessageState
}

// Attribution renders the sender relative to selfID.
func (m ChatMessage) Attribution(selfID string) string {
	if m.SenderID == selfID {
		return "You"
	}
	return "Them"
}

// MessageRef identifies an appended entry across resets, so a slow
// publish failure can never mark an entry of a later session.
type MessageRef struct {
	gen int
	idx int
}

// MessageLog is the ordered, append-only message view for the current
// session. Reset starts a new generation; refs from older generations
// become inert.
type MessageLog struct {
	mu      sync.Mutex
	gen     int
	entries []ChatMessage
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append adds a message in delivery order and returns its ref.
func (l *MessageLog) Append(msg ChatMessage) MessageRef {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, msg)
	return MessageRef{gen: l.gen, idx: len(l.entries) - 1}
}

// MarkFailed flips an entry to MessageFailed. A ref from a previous
// generation is ignored.
func (l *MessageLog) MarkFailed(ref MessageRef) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ref.gen != l.gen || ref.idx < 0 || ref.idx >= len(l.entries) {
		return
	}
	l.entries[ref.idx].State = MessageFailed
}

// All returns a copy of the entries in order.
func (l *MessageLog) All() []ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ChatMessage, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset empties the log for the next session.
func (l *MessageLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	l.entries = nil
}
