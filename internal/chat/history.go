package chat

import "encoding/json"

// historyLimit caps every channel's retained history. Oldest entries are
// evicted first; the newest historyLimit messages always survive.
const historyLimit = 100

// channelStore holds the bounded, ordered history of every channel that has
// seen at least one message. Channels are created lazily and live for the
// process lifetime. Owned by the hub goroutine.
type channelStore struct {
	channels map[string][]json.RawMessage
}

func newChannelStore() *channelStore {
	return &channelStore{
		// The broadcast channel always exists, even before any message,
		// so init snapshots carry it from the start.
		channels: map[string][]json.RawMessage{
			BroadcastChannel: {},
		},
	}
}

// append records msg as the newest entry of chatID, truncating FIFO so that
// len never exceeds historyLimit.
func (s *channelStore) append(chatID string, msg json.RawMessage) {
	history := append(s.channels[chatID], msg)
	if len(history) > historyLimit {
		history = append([]json.RawMessage(nil), history[len(history)-historyLimit:]...)
	}
	s.channels[chatID] = history
}

// snapshot copies the full store for an init frame. The message payloads
// themselves are shared; they are never mutated after append.
func (s *channelStore) snapshot() map[string][]json.RawMessage {
	out := make(map[string][]json.RawMessage, len(s.channels))
	for id, history := range s.channels {
		out[id] = append([]json.RawMessage(nil), history...)
	}
	return out
}
