package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateChannelIDRoundTrip(t *testing.T) {
	id := PrivateChannelID("u1", "u2")
	assert.Equal(t, "private_u1_u2", id)
	assert.Equal(t, []string{"u1", "u2"}, Participants(id))
}

func TestParticipantsMalformed(t *testing.T) {
	// Too many pieces, too few, and ids that fragment on the separator.
	assert.Len(t, Participants("private_u1_u2_u3"), 3)
	assert.Len(t, Participants("private_u1"), 1)
	assert.Len(t, Participants(PrivateChannelID("has_underscore", "u2")), 3)
}

func TestParseUser(t *testing.T) {
	raw := json.RawMessage(`{"id":"u1","nickname":"alice","avatar":"cat.png"}`)
	u, ok := ParseUser(raw)
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice", u.Nickname)
	// The raw profile is kept byte-for-byte, extra fields included.
	assert.Equal(t, string(raw), string(u.Raw))
}

func TestParseUserRejectsMissingID(t *testing.T) {
	_, ok := ParseUser(json.RawMessage(`{"nickname":"ghost"}`))
	assert.False(t, ok)

	_, ok = ParseUser(json.RawMessage(`not json`))
	assert.False(t, ok)
}
