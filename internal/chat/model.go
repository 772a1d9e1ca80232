package chat

import (
	"encoding/json"
	"strings"
)

// ---------------------------------------------
// Channel naming
// ---------------------------------------------

const (
	// BroadcastChannel is the well-known room everyone is in.
	BroadcastChannel = "general"

	// privateMarker prefixes pairwise channel ids: "private_<a>_<b>".
	privateMarker = "private"

	channelSeparator = "_"
)

// PrivateChannelID builds the id of the pairwise channel between two users.
func PrivateChannelID(a, b string) string {
	return privateMarker + channelSeparator + a + channelSeparator + b
}

// Participants recovers the user ids encoded in a private channel id.
// The id itself is the only source of membership; there is no lookup table.
// Ids containing the separator fragment into multiple pieces, which the
// router then treats as a malformed channel (delivered to nobody).
func Participants(chatID string) []string {
	parts := strings.Split(chatID, channelSeparator)
	var ids []string
	for _, p := range parts {
		if p != privateMarker {
			ids = append(ids, p)
		}
	}
	return ids
}

// ---------------------------------------------
// Domain records
// ---------------------------------------------

// User is one present participant. Clients send whatever profile shape they
// like; we only interpret id and nickname and forward the rest untouched,
// so Raw keeps the full object exactly as it arrived.
type User struct {
	ID       string
	Nickname string
	Raw      json.RawMessage
}

// ParseUser extracts the interpreted fields from a raw profile object.
// A user without an id is not a user we can track.
func ParseUser(raw json.RawMessage) (User, bool) {
	var fields struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil || fields.ID == "" {
		return User{}, false
	}
	return User{ID: fields.ID, Nickname: fields.Nickname, Raw: raw}, true
}

// MediaState is the single "now playing" record shared by the whole room.
// It is replaced wholesale on every media-update; no history is kept.
type MediaState struct {
	URL       string `json:"url"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
	UpdatedBy string `json:"updatedBy,omitempty"`
}
