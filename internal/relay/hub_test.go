package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan42/wannameet/internal/directory"
	"github.com/Aryan42/wannameet/internal/models"
	"github.com/Aryan42/wannameet/internal/relay"
	"github.com/Aryan42/wannameet/internal/store"
)

const testAppID = "test-app"

type relayFixture struct {
	srv    *httptest.Server
	tokens store.TokenStore
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	mem := store.NewMemoryStore()
	dir := directory.New(mem, mem, zerolog.Nop())
	hub := relay.NewHub(testAppID, dir, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/rtm/{roomID}", hub.HandleMessaging)
	r.Get("/rtc/{roomID}", hub.HandleMedia)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &relayFixture{srv: srv, tokens: mem}
}

// mintToken issues a transport token directly, bypassing the HTTP
// surface, so tests can join the same room as several participants.
func (f *relayFixture) mintToken(t *testing.T, kind models.TokenKind, roomID uuid.UUID, userID string) string {
	t.Helper()

	token := &models.Token{
		ID:        ulid.Make().String(),
		Kind:      kind,
		UserID:    userID,
		RoomID:    roomID.String(),
		ExpiresAt: time.Now().Add(time.Minute).UnixMilli(),
	}
	require.NoError(t, f.tokens.SaveToken(context.Background(), token))
	return token.ID
}

func (f *relayFixture) dial(t *testing.T, path string, roomID uuid.UUID, userID, token string) *websocket.Conn {
	t.Helper()

	url := strings.Replace(f.srv.URL, "http", "ws", 1) +
		path + "/" + roomID.String() +
		"?userId=" + userID + "&token=" + token + "&appId=" + testAppID

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) relay.Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame relay.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func Test_messaging_channel_relays_between_peers(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	alice := f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))
	bob := f.dial(t, "/rtm", roomID, "bob", f.mintToken(t, models.TokenMessaging, roomID, "bob"))

	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameMessage, Text: "hi there"}))

	frame := readFrame(t, alice)
	assert.Equal(t, relay.FrameMessage, frame.Type)
	assert.Equal(t, "hi there", frame.Text)
	assert.Equal(t, "bob", frame.From, "sender identity comes from the join, not the frame")
	assert.NotZero(t, frame.TS)

	require.NoError(t, alice.WriteJSON(relay.Frame{Type: relay.FrameMessage, Text: "hello"}))
	frame = readFrame(t, bob)
	assert.Equal(t, "alice", frame.From)
	assert.Equal(t, "hello", frame.Text)
}

func Test_messaging_channel_preserves_sender_order(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	alice := f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))
	bob := f.dial(t, "/rtm", roomID, "bob", f.mintToken(t, models.TokenMessaging, roomID, "bob"))

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameMessage, Text: text}))
	}
	for _, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, readFrame(t, alice).Text)
	}
}

func Test_join_rejects_reused_token(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	token := f.mintToken(t, models.TokenMessaging, roomID, "alice")
	f.dial(t, "/rtm", roomID, "alice", token)

	url := strings.Replace(f.srv.URL, "http", "ws", 1) +
		"/rtm/" + roomID.String() + "?userId=alice&token=" + token + "&appId=" + testAppID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func Test_join_rejects_unknown_app_id(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()
	token := f.mintToken(t, models.TokenMessaging, roomID, "alice")

	url := strings.Replace(f.srv.URL, "http", "ws", 1) +
		"/rtm/" + roomID.String() + "?userId=alice&token=" + token + "&appId=wrong"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func Test_join_rejects_token_for_other_channel(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	// A media token must not open the messaging channel.
	token := f.mintToken(t, models.TokenMedia, roomID, "alice")
	url := strings.Replace(f.srv.URL, "http", "ws", 1) +
		"/rtm/" + roomID.String() + "?userId=alice&token=" + token + "&appId=" + testAppID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func Test_third_member_is_turned_away(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))
	f.dial(t, "/rtm", roomID, "bob", f.mintToken(t, models.TokenMessaging, roomID, "bob"))

	carol := f.dial(t, "/rtm", roomID, "carol", f.mintToken(t, models.TokenMessaging, roomID, "carol"))
	require.NoError(t, carol.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := carol.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func Test_rejoin_replaces_stale_seat(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	stale := f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))
	bob := f.dial(t, "/rtm", roomID, "bob", f.mintToken(t, models.TokenMessaging, roomID, "bob"))

	fresh := f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))

	// The stale connection is evicted rather than counting against the
	// room cap.
	require.NoError(t, stale.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := stale.ReadMessage()
	require.Error(t, err)

	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameMessage, Text: "still here?"}))
	assert.Equal(t, "still here?", readFrame(t, fresh).Text)
}

func Test_media_channel_relays_track_signals_and_peer_left(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	alice := f.dial(t, "/rtc", roomID, "alice", f.mintToken(t, models.TokenMedia, roomID, "alice"))
	bob := f.dial(t, "/rtc", roomID, "bob", f.mintToken(t, models.TokenMedia, roomID, "bob"))

	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameTrackPublished, Kind: "video"}))
	frame := readFrame(t, alice)
	assert.Equal(t, relay.FrameTrackPublished, frame.Type)
	assert.Equal(t, "video", frame.Kind)
	assert.Equal(t, "bob", frame.From)

	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameTrackRemoved, Kind: "video"}))
	assert.Equal(t, relay.FrameTrackRemoved, readFrame(t, alice).Type)

	require.NoError(t, bob.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	bob.Close()

	frame = readFrame(t, alice)
	assert.Equal(t, relay.FramePeerLeft, frame.Type)
	assert.Equal(t, "bob", frame.From)
}

func Test_channel_drops_foreign_frame_types(t *testing.T) {
	f := newRelayFixture(t)
	roomID := uuid.New()

	alice := f.dial(t, "/rtm", roomID, "alice", f.mintToken(t, models.TokenMessaging, roomID, "alice"))
	bob := f.dial(t, "/rtm", roomID, "bob", f.mintToken(t, models.TokenMessaging, roomID, "bob"))

	// Media signals have no business on the messaging channel; the next
	// legitimate frame is the first thing alice sees.
	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameTrackPublished, Kind: "video"}))
	require.NoError(t, bob.WriteJSON(relay.Frame{Type: relay.FrameMessage, Text: "legit"}))

	frame := readFrame(t, alice)
	assert.Equal(t, relay.FrameMessage, frame.Type)
	assert.Equal(t, "legit", frame.Text)
}
