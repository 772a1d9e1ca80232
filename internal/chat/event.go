package chat

import "encoding/json"

// EventKind tags every frame on the wire.
type EventKind string

const (
	EventJoin        EventKind = "join"
	EventMessage     EventKind = "message"
	EventMediaUpdate EventKind = "media-update"
	EventTyping      EventKind = "typing"
	EventInit        EventKind = "init"
	EventUserJoined  EventKind = "user-joined"
	EventUserLeft    EventKind = "user-left"
)

// Event is the closed set of inbound payloads the hub dispatches on.
// The unexported method keeps the set closed to this package.
type Event interface {
	kind() EventKind
}

// JoinEvent announces a client's identity and profile.
type JoinEvent struct {
	User json.RawMessage `json:"user"`
}

// ChatEvent carries one opaque message for a channel. An absent chatId
// means the broadcast channel.
type ChatEvent struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}

// MediaEvent replaces the shared media state.
type MediaEvent struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
}

// TypingEvent is a stateless typing indicator.
type TypingEvent struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

func (*JoinEvent) kind() EventKind   { return EventJoin }
func (*ChatEvent) kind() EventKind   { return EventMessage }
func (*MediaEvent) kind() EventKind  { return EventMediaUpdate }
func (*TypingEvent) kind() EventKind { return EventTyping }

// DecodeEvent parses one inbound frame. Unrecognized kinds decode to
// (nil, nil): the caller ignores them without logging, while a real decode
// failure is reported so it can be logged and dropped.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type EventKind `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	var ev Event
	switch envelope.Type {
	case EventJoin:
		ev = &JoinEvent{}
	case EventMessage:
		ev = &ChatEvent{}
	case EventMediaUpdate:
		ev = &MediaEvent{}
	case EventTyping:
		ev = &TypingEvent{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ---------------------------------------------
// Outbound frames
// ---------------------------------------------

type initEvent struct {
	Type         EventKind                    `json:"type"`
	Users        []json.RawMessage            `json:"users"`
	Messages     map[string][]json.RawMessage `json:"messages"`
	CurrentMedia MediaState                   `json:"currentMedia"`
}

type userJoinedEvent struct {
	Type EventKind       `json:"type"`
	User json.RawMessage `json:"user"`
}

type messageEvent struct {
	Type    EventKind       `json:"type"`
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}

type mediaUpdateEvent struct {
	Type  EventKind  `json:"type"`
	Media MediaState `json:"media"`
}

type typingEvent struct {
	Type     EventKind `json:"type"`
	UserID   string    `json:"userId"`
	ChatID   string    `json:"chatId"`
	IsTyping bool      `json:"isTyping"`
}

type userLeftEvent struct {
	Type     EventKind `json:"type"`
	UserID   string    `json:"userId"`
	Nickname string    `json:"nickname"`
}
