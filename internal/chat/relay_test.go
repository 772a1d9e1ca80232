package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRelay(origin string) *Relay {
	return &Relay{
		origin: origin,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRelayUnwrapFiltersOwnOrigin(t *testing.T) {
	r := testRelay("instance-a")

	own, err := json.Marshal(relayEnvelope{Origin: "instance-a", Payload: json.RawMessage(`{"type":"message"}`)})
	require.NoError(t, err)
	_, ok := r.unwrap(own)
	assert.False(t, ok, "own frames must not echo back in")

	foreign, err := json.Marshal(relayEnvelope{Origin: "instance-b", Payload: json.RawMessage(`{"type":"message"}`)})
	require.NoError(t, err)
	payload, ok := r.unwrap(foreign)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"message"}`, string(payload))
}

func TestRelayUnwrapMalformed(t *testing.T) {
	r := testRelay("instance-a")
	_, ok := r.unwrap([]byte(`garbage`))
	assert.False(t, ok)
}
