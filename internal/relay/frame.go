// Package relay hosts the real-time provider the transport adapters
// connect to: one websocket channel per room for text messages and one
// for media signaling, with token-gated joins and per-room fanout.
package relay

// Frame types carried on the relay channels.
const (
	FrameMessage        = "message"
	FrameTrackPublished = "track-published"
	FrameTrackRemoved   = "track-removed"
	FramePeerLeft       = "peer-left"
)

// Channel names, used for routing and metric labels.
const (
	ChannelMessaging = "messaging"
	ChannelMedia     = "media"
)

// Frame is the wire format on both relay channels. Messaging frames use
// Text; media frames use Kind ("audio" or "video"). From is always set
// by the relay, never trusted from the sender.
type Frame struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	Text string `json:"text,omitempty"`
	Kind string `json:"kind,omitempty"`
	TS   int64  `json:"ts,omitempty"`
}
