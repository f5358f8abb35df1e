package wannameet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is where the orchestrator is in its session lifecycle.
type State int

const (
	// StateIdle means no room is held.
	StateIdle State = iota
	// StateJoining means a directory request or transport connect is in
	// flight.
	StateJoining
	// StateInSession means a room is assigned and both handles are live.
	StateInSession
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateInSession:
		return "in-session"
	}
	return "unknown"
}

// ErrNotInSession is emitted when Send is called outside a session.
var ErrNotInSession = errors.New("not in session")

// Directory is the subset of the matchmaking API the orchestrator uses.
// *Client implements it.
type Directory interface {
	RequestRoom(ctx context.Context, userID string) (*RequestRoomResponse, error)
	CreateRoom(ctx context.Context, userID string) (*CreateRoomResponse, error)
	ReleaseRoom(ctx context.Context, roomID string) error
}

// PeerMedia holds the current remote track slots. Empty sender ids mean
// no track; there is no historical buffering.
type PeerMedia struct {
	VideoFrom string
	AudioFrom string
}

// Event is a notification on the orchestrator's outward event stream.
type Event interface {
	sessionEvent()
}

// StateChanged reports a lifecycle transition.
type StateChanged struct {
	State State
	Room  *RoomView
}

// LogUpdated signals that the message log changed.
type LogUpdated struct{}

// PeerMediaChanged reports a remote track slot change.
type PeerMediaChanged struct {
	Media PeerMedia
}

// SessionError reports a failed join attempt or a rejected command. The
// session is back in Idle; the user retries manually.
type SessionError struct {
	Err error
}

func (StateChanged) sessionEvent()     {}
func (LogUpdated) sessionEvent()       {}
func (PeerMediaChanged) sessionEvent() {}
func (SessionError) sessionEvent()     {}

// Config assembles an Orchestrator.
type Config struct {
	UserID    string
	Directory Directory
	Media     Transport
	Messaging Transport
	Logger    zerolog.Logger
}

// Orchestrator owns at most one (room, media handle, messaging handle)
// triple at any time. All lifecycle decisions happen on a single run
// loop; user actions and transport notifications are typed values on
// channels, so the loop never blocks on the network and a "next" is
// handled immediately even while a join attempt is in flight.
type Orchestrator struct {
	userID    string
	dir       Directory
	media     Transport
	messaging Transport
	logger    zerolog.Logger

	log *MessageLog

	cmds   chan command
	notes  chan note
	events chan Event

	stopOnce sync.Once
	done     chan struct{}

	// Run-loop state; only the loop goroutine touches these.
	state         State
	gen           int
	room          *RoomView
	channelHandle Handle
	mediaHandle   Handle
	peer          PeerMedia
	attemptCancel context.CancelFunc

	mu        sync.Mutex // guards the public snapshot below
	snapState State
	snapRoom  *RoomView
	snapPeer  PeerMedia
}

type command interface{ command() }

type nextCmd struct{}
type sendCmd struct{ text string }

func (nextCmd) command() {}
func (sendCmd) command() {}

// note is an internal loop event: either a finished join attempt or a
// transport notification, tagged with the generation it belongs to so
// stale attempts and dead sessions are recognized.
type note struct {
	gen    int
	result *attemptResult
	ev     TransportEvent
}

type attemptResult struct {
	room          RoomView
	channelHandle Handle
	mediaHandle   Handle
	err           error
}

// NewOrchestrator creates the orchestrator and starts its run loop.
func NewOrchestrator(cfg Config) *Orchestrator {
	o := &Orchestrator{
		userID:    cfg.UserID,
		dir:       cfg.Directory,
		media:     cfg.Media,
		messaging: cfg.Messaging,
		logger:    cfg.Logger.With().Str("component", "session").Str("user", cfg.UserID).Logger(),
		log:       NewMessageLog(),
		cmds:      make(chan command, 8),
		notes:     make(chan note, 64),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}
	go o.run()
	return o
}

// Start begins the first session. Identical to Next.
func (o *Orchestrator) Start() { o.Next() }

// Next discards the current session, if any, and requests a new match.
func (o *Orchestrator) Next() {
	select {
	case o.cmds <- nextCmd{}:
	case <-o.done:
	}
}

// Send publishes a text message to the current session.
func (o *Orchestrator) Send(text string) {
	select {
	case o.cmds <- sendCmd{text: text}:
	case <-o.done:
	}
}

// Stop tears the session down and ends the run loop. The event channel
// closes once teardown has been initiated.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.done) })
}

// Events is the orchestrator's outward notification stream. Closed on
// Stop. Slow consumers lose events rather than stalling the session.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// UserID returns the ephemeral participant id.
func (o *Orchestrator) UserID() string { return o.userID }

// Messages returns the current session's log in order.
func (o *Orchestrator) Messages() []ChatMessage { return o.log.All() }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapState
}

// Room returns the current room, or nil outside a session.
func (o *Orchestrator) Room() *RoomView {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snapRoom == nil {
		return nil
	}
	copied := *o.snapRoom
	return &copied
}

// PeerMedia returns the current remote track slots.
func (o *Orchestrator) PeerMedia() PeerMedia {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapPeer
}

func (o *Orchestrator) run() {
	for {
		select {
		case <-o.done:
			o.leave()
			close(o.events)
			return
		case cmd := <-o.cmds:
			switch c := cmd.(type) {
			case nextCmd:
				o.enterSession()
			case sendCmd:
				o.send(c.text)
			}
		case n := <-o.notes:
			o.handleNote(n)
		}
	}
}

// enterSession runs the rematch transition: clear local session state,
// initiate teardown of whatever was held, then start a fresh join
// attempt under a new generation.
func (o *Orchestrator) enterSession() {
	o.log.Reset()
	o.peer = PeerMedia{}

	// Both handles leave together; nothing dangles past this point.
	oldChannel, oldMedia, oldRoom := o.channelHandle, o.mediaHandle, o.room
	o.channelHandle, o.mediaHandle, o.room = nil, nil, nil

	if o.attemptCancel != nil {
		o.attemptCancel()
		o.attemptCancel = nil
	}

	o.gen++
	o.setState(StateJoining)
	o.syncPeer()
	o.emit(LogUpdated{})

	go o.teardown(oldChannel, oldMedia, oldRoom)

	ctx, cancel := context.WithCancel(context.Background())
	o.attemptCancel = cancel
	go o.attempt(ctx, o.gen)
}

// teardown releases a session's resources in the background. The run
// loop never waits on it; failures are logged, not surfaced.
func (o *Orchestrator) teardown(channel, media Handle, room *RoomView) {
	if channel != nil {
		channel.Disconnect()
	}
	if media != nil {
		media.Disconnect()
	}
	if room == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.dir.ReleaseRoom(ctx, room.ID); err != nil {
		o.logger.Warn().Err(err).Str("room", room.ID).Msg("room release failed")
	}
}

// attempt resolves a room and connects both transports, then reports
// back to the loop. If the orchestrator stopped meanwhile, the acquired
// handles are released here so they cannot leak.
func (o *Orchestrator) attempt(ctx context.Context, gen int) {
	result := o.dial(ctx)

	select {
	case o.notes <- note{gen: gen, result: result}:
	case <-o.done:
		discard(result)
	}
}

func (o *Orchestrator) dial(ctx context.Context) *attemptResult {
	resp, err := o.dir.RequestRoom(ctx, o.userID)
	if err != nil {
		return &attemptResult{err: fmt.Errorf("request room: %w", err)}
	}

	var room RoomView
	var mediaToken, messagingToken string
	if len(resp.Rooms) > 0 {
		room = resp.Rooms[0]
		mediaToken, messagingToken = resp.MediaToken, resp.MessagingToken
	} else {
		created, err := o.dir.CreateRoom(ctx, o.userID)
		if err != nil {
			return &attemptResult{err: fmt.Errorf("create room: %w", err)}
		}
		room = created.Room
		mediaToken, messagingToken = created.MediaToken, created.MessagingToken
	}

	// Messaging joins first so textual presence exists before media
	// negotiation begins.
	channel, err := o.messaging.Connect(ctx, room.ID, o.userID, messagingToken)
	if err != nil {
		return &attemptResult{err: err}
	}
	media, err := o.media.Connect(ctx, room.ID, o.userID, mediaToken)
	if err != nil {
		// Never leave a half-joined session behind.
		channel.Disconnect()
		return &attemptResult{err: err}
	}

	return &attemptResult{room: room, channelHandle: channel, mediaHandle: media}
}

func (o *Orchestrator) handleNote(n note) {
	if n.gen != o.gen {
		// A superseded attempt or a dead session's transport. Its
		// resources were already scheduled for release, except when a
		// canceled attempt still managed to complete.
		if n.result != nil {
			go discard(n.result)
		}
		return
	}
	if n.result != nil {
		o.finishAttempt(n.result)
		return
	}
	o.handleTransportEvent(n.ev)
}

func (o *Orchestrator) finishAttempt(res *attemptResult) {
	o.attemptCancel = nil

	if res.err != nil {
		o.logger.Warn().Err(res.err).Msg("join attempt failed")
		o.setState(StateIdle)
		o.emit(SessionError{Err: res.err})
		return
	}

	o.room = &res.room
	o.channelHandle = res.channelHandle
	o.mediaHandle = res.mediaHandle
	o.setState(StateInSession)
	o.logger.Info().Str("room", res.room.ID).Msg("session established")

	go o.pump(o.gen, res.channelHandle)
	go o.pump(o.gen, res.mediaHandle)

	// Announce local tracks. Failure degrades only the peer's view.
	go func(h Handle) {
		for _, kind := range []string{"audio", "video"} {
			if err := h.Publish(trackPayload(frameTrackPublished, kind)); err != nil {
				o.logger.Warn().Err(err).Str("kind", kind).Msg("track announce failed")
			}
		}
	}(res.mediaHandle)
}

// pump forwards one handle's event stream to the loop, preserving the
// provider's delivery order.
func (o *Orchestrator) pump(gen int, h Handle) {
	for ev := range h.Events() {
		select {
		case o.notes <- note{gen: gen, ev: ev}:
		case <-o.done:
			return
		}
	}
}

func (o *Orchestrator) handleTransportEvent(ev TransportEvent) {
	switch e := ev.(type) {
	case MessageReceived:
		o.log.Append(ChatMessage{SenderID: e.From, Text: e.Text, State: MessageSent})
		o.emit(LogUpdated{})
	case TrackPublished:
		switch e.Kind {
		case "video":
			o.peer.VideoFrom = e.From
		case "audio":
			o.peer.AudioFrom = e.From
		}
		o.syncPeer()
	case TrackRemoved:
		if e.Kind == "video" && o.peer.VideoFrom == e.From {
			o.peer.VideoFrom = ""
		}
		if e.Kind == "audio" && o.peer.AudioFrom == e.From {
			o.peer.AudioFrom = ""
		}
		o.syncPeer()
	case PeerLeft:
		o.peer = PeerMedia{}
		o.syncPeer()
	}
}

func (o *Orchestrator) send(text string) {
	if o.state != StateInSession || o.channelHandle == nil {
		o.emit(SessionError{Err: ErrNotInSession})
		return
	}

	// Optimistic local echo; a failed publish flips it to Failed but is
	// never retried or rolled back.
	ref := o.log.Append(ChatMessage{SenderID: o.userID, Text: text, State: MessageSent})
	o.emit(LogUpdated{})

	h := o.channelHandle
	go func() {
		if err := h.Publish(messagePayload(text)); err != nil {
			o.log.MarkFailed(ref)
			o.logger.Warn().Err(err).Msg("message publish failed")
		}
	}()
}

// leave runs on Stop: the local session is gone immediately; network
// teardown happens synchronously here since the loop is exiting anyway.
func (o *Orchestrator) leave() {
	if o.attemptCancel != nil {
		o.attemptCancel()
		o.attemptCancel = nil
	}

	oldChannel, oldMedia, oldRoom := o.channelHandle, o.mediaHandle, o.room
	o.channelHandle, o.mediaHandle, o.room = nil, nil, nil
	o.gen++
	o.setState(StateIdle)

	o.teardown(oldChannel, oldMedia, oldRoom)
}

func (o *Orchestrator) setState(s State) {
	o.state = s

	o.mu.Lock()
	o.snapState = s
	o.snapRoom = o.room
	o.mu.Unlock()

	o.emit(StateChanged{State: s, Room: o.room})
}

func (o *Orchestrator) syncPeer() {
	o.mu.Lock()
	o.snapPeer = o.peer
	o.mu.Unlock()

	o.emit(PeerMediaChanged{Media: o.peer})
}

// emit never blocks; a saturated consumer loses the event.
func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}

func discard(res *attemptResult) {
	if res == nil {
		return
	}
	if res.channelHandle != nil {
		res.channelHandle.Disconnect()
	}
	if res.mediaHandle != nil {
		res.mediaHandle.Disconnect()
	}
}
