package relay

import "sync"

// channelSet tracks live room channels keyed by room id and kind.
type channelSet struct {
	mu       sync.Mutex
	channels map[string]*roomChannel
}

func newChannelSet() channelSet {
	return channelSet{channels: make(map[string]*roomChannel)}
}

func channelKey(roomID, channel string) string {
	return roomID + "/" + channel
}

// join adds c to the room channel, creating it on first join. When the
// same participant already holds a seat, the stale client is returned
// for the caller to close and c takes the seat. ok is false when the
// room is at capacity with other participants.
func (s *channelSet) join(roomID, channel string, c *client) (ch *roomChannel, replaced *client, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := channelKey(roomID, channel)
	ch = s.channels[key]
	if ch == nil {
		ch = &roomChannel{members: make(map[string]*client, roomCapacity)}
		s.channels[key] = ch
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if old, exists := ch.members[c.userID]; exists {
		ch.members[c.userID] = c
		return ch, old, true
	}
	if len(ch.members) >= roomCapacity {
		return ch, nil, false
	}
	ch.members[c.userID] = c
	return ch, nil, true
}

// leave removes c from the channel, dropping the channel itself when it
// empties. Returns false when c had already been replaced by a newer
// connection for the same participant.
func (s *channelSet) leave(roomID, channel string, c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := channelKey(roomID, channel)
	ch := s.channels[key]
	if ch == nil {
		return false
	}

	ch.mu.Lock()
	current, exists := ch.members[c.userID]
	if !exists || current != c {
		ch.mu.Unlock()
		return false
	}
	delete(ch.members, c.userID)
	empty := len(ch.members) == 0
	ch.mu.Unlock()

	if empty {
		delete(s.channels, key)
	}
	return true
}

// roomChannel is the membership set of one (room, kind) pair.
type roomChannel struct {
	mu      sync.Mutex
	members map[string]*client
}

// others returns every member except from.
func (ch *roomChannel) others(from *client) []*client {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	out := make([]*client, 0, len(ch.members))
	for _, member := range ch.members {
		if member != from {
			out = append(out, member)
		}
	}
	return out
}
