package rpcservice

import (
	"sync"

	"github.com/jiisanda/pandapouch/peer"
)

// Membership is the cluster's ordered list of announced nodes plus this
// node's own identity. It is mutated in lockstep with the hash ring by
// Service.JoinCluster/LeaveCluster.
type Membership struct {
	mu    sync.Mutex
	self  peer.ID
	nodes []peer.ID
}

// NewMembership seeds membership with self and any initial peers.
func NewMembership(self peer.ID, initial ...peer.ID) *Membership {
	nodes := make([]peer.ID, 0, len(initial)+1)
	nodes = append(nodes, self)
	for _, n := range initial {
		if !n.Equal(self) {
			nodes = append(nodes, n)
		}
	}
	return &Membership{self: self, nodes: nodes}
}

// Self returns this node's own identity.
func (m *Membership) Self() peer.ID {
	return m.self
}

// Nodes returns a snapshot of the current membership list.
func (m *Membership) Nodes() []peer.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]peer.ID, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Join appends node if not already present. Idempotent.
func (m *Membership) Join(node peer.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.Equal(node) {
			return
		}
	}
	m.nodes = append(m.nodes, node)
}

// Leave removes node by structural equality. No-op if absent.
func (m *Membership) Leave(node peer.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.nodes {
		if n.Equal(node) {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}
