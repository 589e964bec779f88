package ring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiisanda/pandapouch/peer"
)

func node(port int) peer.ID {
	return peer.ID{Host: "localhost", Port: port}
}

func TestEmptyRing(t *testing.T) {
	r := New[peer.ID](nil, 10, nil)
	_, ok := r.GetNode("hello")
	assert.False(t, ok)
}

func sixNodes() []peer.ID {
	return []peer.ID{
		node(15324), node(15325), node(15326),
		node(15327), node(15328), node(15329),
	}
}

// TestDefaultDistribution pins the exact ownership the spec requires under
// the default XXH64 hasher with R=10 over six localhost nodes.
func TestDefaultDistribution(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)

	owner, ok := r.GetNode("hello")
	require.True(t, ok)
	assert.Equal(t, node(15326), owner)

	owner, ok = r.GetNode("dude")
	require.True(t, ok)
	assert.Equal(t, node(15327), owner)

	r.RemoveNode(node(15329))
	owner, ok = r.GetNode("hello")
	require.True(t, ok)
	assert.Equal(t, node(15326), owner)

	r.AddNode(node(15329))
	owner, ok = r.GetNode("hello")
	require.True(t, ok)
	assert.Equal(t, node(15326), owner)
}

func TestVirtualKeyCount(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)
	assert.Equal(t, 60, r.Len())

	r.RemoveNode(node(15326))
	assert.Equal(t, 50, r.Len())
}

func TestRemoveNonExistentNode(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)
	r.RemoveNode(node(15330))
	assert.Equal(t, 60, r.Len())
}

func TestAddThenRemoveReturnsToIdenticalState(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)
	before, ok := r.GetNode("hello")
	require.True(t, ok)

	r.RemoveNode(node(15326))
	r.AddNode(node(15326))

	after, ok := r.GetNode("hello")
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 60, r.Len())
}

func TestIdempotentAdd(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)
	r.AddNode(node(15324)) // already present
	assert.Equal(t, 60, r.Len(), "re-adding a member must not accumulate duplicate virtual keys")
}

func TestGetNodeDeterministic(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, nil)
	first, _ := r.GetNode("determinism")
	for i := 0; i < 100; i++ {
		again, ok := r.GetNode("determinism")
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

type constantHasher struct{}

func (constantHasher) Write(p []byte) (int, error) { return len(p), nil }
func (constantHasher) Sum64() uint64                { return 1 }

func TestConstantHasherCollapsesToOneNode(t *testing.T) {
	r := New[peer.ID](sixNodes(), 10, func() Hasher { return constantHasher{} })

	owner, ok := r.GetNode("hello")
	require.True(t, ok)
	first := owner

	for _, key := range []string{"dude", "two", "anything at all"} {
		owner, ok := r.GetNode(key)
		require.True(t, ok)
		assert.Equal(t, first, owner)
	}
}

// customNode exercises the ring's polymorphism over node display types.
type customNode struct {
	host string
	port int
}

func (c customNode) String() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

func TestCustomNodeType(t *testing.T) {
	nodes := []customNode{
		{"localhost", 15324}, {"localhost", 15325}, {"localhost", 15326},
		{"localhost", 15327}, {"localhost", 15328}, {"localhost", 15329},
	}
	r := New[customNode](nodes, 10, nil)

	owner, ok := r.GetNode("hello")
	require.True(t, ok)
	assert.Equal(t, "localhost:15326", owner.String())

	owner, ok = r.GetNode("dude")
	require.True(t, ok)
	assert.Equal(t, "localhost:15327", owner.String())
}

func TestRemoveIsNoOpWhenRingEmpty(t *testing.T) {
	r := New[peer.ID](nil, 10, nil)
	r.RemoveNode(node(1))
	assert.Equal(t, 0, r.Len())
}

// TestCollidingHashesKeepDistinctOwners pins that a hash collision between
// two different nodes' virtual keys is resolved by the sorted order's own
// (hash, display) tie-break rather than losing one node's ownership to a
// shared lookup keyed only by hash.
func TestCollidingHashesKeepDistinctOwners(t *testing.T) {
	r := New[peer.ID](nil, 1, func() Hasher { return constantHasher{} })
	r.AddNode(node(1))
	r.AddNode(node(2))

	require.Equal(t, 2, r.Len(), "both nodes' virtual keys must survive the collision")

	owner, ok := r.GetNode("anything")
	require.True(t, ok)

	r.RemoveNode(owner)
	_, stillPresent := r.GetNode("anything")
	require.True(t, stillPresent, "removing the resolved owner must not also remove the other colliding node")
	assert.Equal(t, 1, r.Len())
}
