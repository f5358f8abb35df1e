package wannameet

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisconnected is wrapped by PublishError when the handle is gone.
var ErrDisconnected = errors.New("handle disconnected")

// ConnectionError means a transport connect failed: bad or spent token,
// or provider unreachable. The attempt is failed; retry via a fresh
// rematch, never by reusing the token.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("transport connect failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PublishError means a publish on a live handle failed. Best-effort: the
// orchestrator never retries.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// TransportEvent is an asynchronous notification from a connected
// handle. Events arrive on a single ordered stream per handle.
type TransportEvent interface {
	transportEvent()
}

// MessageReceived is emitted by the messaging channel.
type MessageReceived struct {
	From string
	Text string
}

// TrackPublished is emitted by the media channel when a remote
// participant's track becomes available. Kind is "audio" or "video".
type TrackPublished struct {
	From string
	Kind string
}

// TrackRemoved is emitted when a remote track is withdrawn.
type TrackRemoved struct {
	From string
	Kind string
}

// PeerLeft is emitted by the media channel when the remote participant
// disconnects.
type PeerLeft struct {
	From string
}

func (MessageReceived) transportEvent() {}
func (TrackPublished) transportEvent()  {}
func (TrackRemoved) transportEvent()    {}
func (PeerLeft) transportEvent()        {}

// Handle is one live transport connection. Disconnect is idempotent and
// safe on an already-disconnected handle. Events is closed once the
// handle is fully torn down.
type Handle interface {
	Publish(payload []byte) error
	Events() <-chan TransportEvent
	Disconnect()
}

// Transport establishes provider connections. One implementation exists
// per transport kind (media, messaging); both share this contract.
type Transport interface {
	Connect(ctx context.Context, roomID, userID, token string) (Handle, error)
}
