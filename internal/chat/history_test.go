package chat

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelStoreLazyCreation(t *testing.T) {
	s := newChannelStore()
	assert.Len(t, s.channels, 1, "only the broadcast channel exists up front")

	s.append("private_u1_u2", json.RawMessage(`"hi"`))
	assert.Len(t, s.channels, 2)
	assert.Len(t, s.channels["private_u1_u2"], 1)
}

func TestChannelStoreFIFOTruncation(t *testing.T) {
	s := newChannelStore()
	for i := 1; i <= 250; i++ {
		s.append(BroadcastChannel, json.RawMessage(fmt.Sprintf(`"m%d"`, i)))
		assert.LessOrEqual(t, len(s.channels[BroadcastChannel]), historyLimit)
	}

	history := s.channels[BroadcastChannel]
	require.Len(t, history, historyLimit)
	assert.Equal(t, `"m151"`, string(history[0]))
	assert.Equal(t, `"m250"`, string(history[historyLimit-1]))
}

func TestChannelStoreSnapshotIsIndependent(t *testing.T) {
	s := newChannelStore()
	s.append(BroadcastChannel, json.RawMessage(`"before"`))

	snap := s.snapshot()
	s.append(BroadcastChannel, json.RawMessage(`"after"`))

	assert.Len(t, snap[BroadcastChannel], 1)
	assert.Len(t, s.channels[BroadcastChannel], 2)
}
