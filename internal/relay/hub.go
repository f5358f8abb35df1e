package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Aryan42/wannameet/internal/metrics"
	"github.com/Aryan42/wannameet/internal/models"
)

// roomCapacity is the hard membership cap per room channel.
const roomCapacity = 2

// Authorizer validates and consumes a transport token for one connect.
type Authorizer interface {
	Authorize(ctx context.Context, tokenID string, kind models.TokenKind, roomID uuid.UUID, userID string) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans frames out within room channels. One channel instance exists
// per (room, kind) pair and disappears when its last member leaves.
type Hub struct {
	appID  string
	auth   Authorizer
	logger zerolog.Logger

	channels channelSet
}

// NewHub creates a relay hub. Connects are rejected unless they carry
// the provider application id issued to this deployment.
func NewHub(appID string, auth Authorizer, logger zerolog.Logger) *Hub {
	return &Hub{
		appID:    appID,
		auth:     auth,
		logger:   logger.With().Str("component", "relay").Logger(),
		channels: newChannelSet(),
	}
}

// HandleMessaging upgrades a messaging-channel join:
// GET /rtm/{roomID}?userId=&token=&appId=
func (h *Hub) HandleMessaging(w http.ResponseWriter, r *http.Request) {
	h.handleJoin(w, r, ChannelMessaging, models.TokenMessaging)
}

// HandleMedia upgrades a media-signaling join:
// GET /rtc/{roomID}?userId=&token=&appId=
func (h *Hub) HandleMedia(w http.ResponseWriter, r *http.Request) {
	h.handleJoin(w, r, ChannelMedia, models.TokenMedia)
}

func (h *Hub) handleJoin(w http.ResponseWriter, r *http.Request, channel string, kind models.TokenKind) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		http.Error(w, `{"error":"invalid room ID format"}`, http.StatusBadRequest)
		return
	}

	userID := r.URL.Query().Get("userId")
	tokenID := r.URL.Query().Get("token")
	appID := r.URL.Query().Get("appId")

	if userID == "" || tokenID == "" {
		http.Error(w, `{"error":"userId and token are required"}`, http.StatusBadRequest)
		return
	}
	if appID != h.appID {
		http.Error(w, `{"error":"unknown application id"}`, http.StatusForbidden)
		return
	}

	if err := h.auth.Authorize(r.Context(), tokenID, kind, roomID, userID); err != nil {
		h.logger.Warn().Err(err).
			Str("channel", channel).
			Str("room", roomID.String()).
			Str("user", userID).
			Msg("join rejected")
		http.Error(w, `{"error":"token rejected"}`, http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(userID, conn)
	ch, replaced, ok := h.channels.join(roomID.String(), channel, c)
	if !ok {
		h.logger.Warn().Str("room", roomID.String()).Str("channel", channel).Msg("room full")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "room full"))
		_ = conn.Close()
		return
	}
	if replaced != nil {
		// A stale connection for the same participant loses its seat.
		replaced.close()
	}

	metrics.RelayConnections.WithLabelValues(channel).Inc()
	h.logger.Info().
		Str("channel", channel).
		Str("room", roomID.String()).
		Str("user", userID).
		Msg("joined")

	go c.writeLoop()
	h.readLoop(ch, c, channel)

	if h.channels.leave(roomID.String(), channel, c) && channel == ChannelMedia {
		h.broadcast(ch, c, &Frame{Type: FramePeerLeft, From: userID, TS: time.Now().UnixMilli()}, channel)
	}
	c.close()

	metrics.RelayConnections.WithLabelValues(channel).Dec()
	h.logger.Info().
		Str("channel", channel).
		Str("room", roomID.String()).
		Str("user", userID).
		Msg("left")
}

// readLoop consumes inbound frames until the peer disconnects, stamping
// sender and timestamp before fanning out. Delivery order within one
// connection follows read order.
func (h *Hub) readLoop(ch *roomChannel, c *client, channel string) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				h.logger.Debug().Err(err).Str("user", c.userID).Msg("read ended")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if !allowed(channel, frame.Type) {
			continue
		}

		frame.From = c.userID
		frame.TS = time.Now().UnixMilli()
		h.broadcast(ch, c, &frame, channel)
	}
}

// broadcast fans a frame out to every other member of the channel.
func (h *Hub) broadcast(ch *roomChannel, from *client, frame *Frame, channel string) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	for _, member := range ch.others(from) {
		if member.enqueue(data) {
			metrics.FramesRelayed.WithLabelValues(channel).Inc()
		} else {
			h.logger.Warn().Str("user", member.userID).Msg("send queue full, frame dropped")
		}
	}
}

func allowed(channel, frameType string) bool {
	switch channel {
	case ChannelMessaging:
		return frameType == FrameMessage
	case ChannelMedia:
		return frameType == FrameTrackPublished || frameType == FrameTrackRemoved
	}
	return false
}
