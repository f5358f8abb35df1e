package wannameet

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Relay frame, mirroring the server wire format.
type frame struct {
	Type string `json:"type"`
	From string `json:"from,omitempty"`
	Text string `json:"text,omitempty"`
	Kind string `json:"kind,omitempty"`
	TS   int64  `json:"ts,omitempty"`
}

const (
	frameMessage        = "message"
	frameTrackPublished = "track-published"
	frameTrackRemoved   = "track-removed"
	framePeerLeft       = "peer-left"
)

// messagePayload builds a publishable text-message frame.
func messagePayload(text string) []byte {
	data, _ := json.Marshal(frame{Type: frameMessage, Text: text})
	return data
}

// trackPayload builds a publishable track announcement frame.
func trackPayload(frameType, kind string) []byte {
	data, _ := json.Marshal(frame{Type: frameType, Kind: kind})
	return data
}

// WSTransport connects to one relay channel over websocket. Use
// NewMessagingTransport / NewMediaTransport rather than filling this in
// by hand.
type WSTransport struct {
	BaseURL string
	AppID   string
	Path    string
	Dialer  *websocket.Dialer
	Logger  zerolog.Logger
}

// NewMessagingTransport returns the adapter for the text channel.
func NewMessagingTransport(baseURL, appID string, logger zerolog.Logger) *WSTransport {
	return &WSTransport{
		BaseURL: baseURL,
		AppID:   appID,
		Path:    "/rtm",
		Dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		Logger:  logger.With().Str("transport", "messaging").Logger(),
	}
}

// NewMediaTransport returns the adapter for the media-signaling channel.
func NewMediaTransport(baseURL, appID string, logger zerolog.Logger) *WSTransport {
	return &WSTransport{
		BaseURL: baseURL,
		AppID:   appID,
		Path:    "/rtc",
		Dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		Logger:  logger.With().Str("transport", "media").Logger(),
	}
}

// Connect dials the relay channel for roomID with the issued token.
func (t *WSTransport) Connect(ctx context.Context, roomID, userID, token string) (Handle, error) {
	u, err := t.channelURL(roomID, userID, token)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	conn, resp, err := t.Dialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, &ConnectionError{Err: err}
	}

	h := &wsHandle{
		conn:   conn,
		events: make(chan TransportEvent, 64),
		closed: make(chan struct{}),
		logger: t.Logger,
	}
	go h.readLoop()
	return h, nil
}

func (t *WSTransport) channelURL(roomID, userID, token string) (string, error) {
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + t.Path + "/" + roomID

	q := u.Query()
	q.Set("userId", userID)
	q.Set("token", token)
	q.Set("appId", t.AppID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// wsHandle is a live relay connection. The read loop is the only sender
// and closer of the events channel.
type wsHandle struct {
	conn    *websocket.Conn
	events  chan TransportEvent
	logger  zerolog.Logger
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

func (h *wsHandle) Events() <-chan TransportEvent {
	return h.events
}

func (h *wsHandle) Publish(payload []byte) error {
	select {
	case <-h.closed:
		return &PublishError{Err: ErrDisconnected}
	default:
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := h.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &PublishError{Err: err}
	}
	return nil
}

// Disconnect is idempotent; the events channel closes once the read
// loop observes the dropped connection.
func (h *wsHandle) Disconnect() {
	h.closeOnce.Do(func() {
		close(h.closed)
		_ = h.conn.Close()
	})
}

func (h *wsHandle) readLoop() {
	defer close(h.events)

	for {
		_, data, err := h.conn.ReadMessage()
		if err != nil {
			h.Disconnect()
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.logger.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		ev := toEvent(f)
		if ev == nil {
			continue
		}
		select {
		case h.events <- ev:
		case <-h.closed:
			return
		}
	}
}

func toEvent(f frame) TransportEvent {
	switch f.Type {
	case frameMessage:
		return MessageReceived{From: f.From, Text: f.Text}
	case frameTrackPublished:
		return TrackPublished{From: f.From, Kind: f.Kind}
	case frameTrackRemoved:
		return TrackRemoved{From: f.From, Kind: f.Kind}
	case framePeerLeft:
		return PeerLeft{From: f.From}
	}
	return nil
}
