package gateway

import (
	"testing"

	"github.com/mfuentes/plaza/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConnection(t *testing.T, id string, identity domain.Identity) *Connection {
	t.Helper()
	conn := newConnection(id, nil)
	require.NoError(t, conn.transition(StatePending, StateAuthenticating))
	require.NoError(t, conn.admit(identity))
	return conn
}

func drain(c *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	conn := testConnection(t, "c1", domain.Identity{ID: "user:1", Username: "maria"})

	r.Add(conn)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove("c1"))
	assert.Equal(t, 0, r.Len())

	// Removing twice is harmless.
	assert.False(t, r.Remove("c1"))
}

func TestRegistry_BroadcastReachesAllButExcluded(t *testing.T) {
	r := NewRegistry()
	sender := testConnection(t, "sender", domain.Identity{ID: "user:1"})
	other := testConnection(t, "other", domain.Identity{ID: "user:2"})
	third := testConnection(t, "third", domain.Identity{ID: "user:3"})
	r.Add(sender)
	r.Add(other)
	r.Add(third)

	r.Broadcast([]byte("hello"), "sender")

	assert.Empty(t, drain(sender))
	require.Len(t, drain(other), 1)
	require.Len(t, drain(third), 1)
}

func TestRegistry_BroadcastWithoutExclusionIncludesEveryone(t *testing.T) {
	r := NewRegistry()
	a := testConnection(t, "a", domain.Identity{ID: "user:1"})
	b := testConnection(t, "b", domain.Identity{ID: "user:2"})
	r.Add(a)
	r.Add(b)

	r.Broadcast([]byte("hello"))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestRegistry_SendTargetsOneConnection(t *testing.T) {
	r := NewRegistry()
	a := testConnection(t, "a", domain.Identity{ID: "user:1"})
	b := testConnection(t, "b", domain.Identity{ID: "user:2"})
	r.Add(a)
	r.Add(b)

	assert.True(t, r.Send("a", []byte("just for you")))
	assert.False(t, r.Send("missing", []byte("nobody")))

	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(b))
}

func TestRegistry_EvictsSlowConnectionOnBroadcast(t *testing.T) {
	r := NewRegistry()
	slow := testConnection(t, "slow", domain.Identity{ID: "user:1"})
	r.Add(slow)

	// Fill the outbound buffer so the next broadcast cannot enqueue.
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, slow.enqueue([]byte("x")))
	}

	r.Broadcast([]byte("overflow"))
	assert.Equal(t, 0, r.Len())
}
