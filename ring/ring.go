// Package ring implements a consistent hash ring with virtual replicas,
// the key-to-owner mapping that partitions the cluster's keyspace.
//
// Time complexity: GetNode is O(log(N*R)) via binary search over a sorted
// virtual-key slice. AddNode re-sorts the whole slice, O(N*R*log(N*R));
// RemoveNode scans it, O(N*R).
package ring

import (
	"fmt"
	"sort"
	"sync"
)

// Node is the capability a ring member must provide: a stable display
// string used both to derive its virtual keys and as the deterministic
// tie-break when two virtual keys hash equal.
type Node interface {
	String() string
}

// Hasher is the capability the ring needs from a hash function: a byte
// sink plus a 64-bit digest, the same shape as hash.Hash64 in the standard
// library. *xxhash.Digest (github.com/cespare/xxhash/v2) satisfies it
// directly.
type Hasher interface {
	Write(p []byte) (int, error)
	Sum64() uint64
}

// HasherFactory builds a fresh Hasher. Hashers accumulate state via Write,
// so the ring needs a new instance per digest rather than a shared one.
type HasherFactory func() Hasher

// vkey is one virtual node's position on the ring. The owning node is
// carried directly alongside the hash and display string rather than
// looked up through a side table keyed by hash, so two virtual keys
// that happen to hash equal still resolve through the sorted order's
// own (hash, display) tie-break instead of colliding on a shared map slot.
type vkey[N Node] struct {
	hash    uint64
	node    N
	display string // node.String(), cached for the tie-break comparator
}

// Ring is a consistent hash ring over a generic node identity. Safe for
// concurrent use: GetNode takes a read lock, AddNode/RemoveNode an
// exclusive one.
type Ring[N Node] struct {
	mu       sync.RWMutex
	replicas int
	newHash  HasherFactory
	sorted   []vkey[N]
}

// New constructs a ring seeded with nodes, replicas virtual nodes per
// physical node, and the default hasher.
func New[N Node](nodes []N, replicas int, newHash HasherFactory) *Ring[N] {
	if newHash == nil {
		newHash = DefaultHasherFactory
	}
	r := &Ring[N]{
		replicas: replicas,
		newHash:  newHash,
	}
	for _, n := range nodes {
		r.AddNode(n)
	}
	return r
}

func (r *Ring[N]) hash(key string) uint64 {
	h := r.newHash()
	h.Write([]byte(key))
	return h.Sum64()
}

// AddNode inserts Replicas virtual keys for node. Re-adding an already
// present node first drops its existing virtual keys, so the operation is
// idempotent rather than accumulating duplicates on repeated joins.
func (r *Ring[N]) AddNode(node N) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeNodeLocked(node)

	display := node.String()
	for i := 0; i < r.replicas; i++ {
		h := r.hash(fmt.Sprintf("%s:%d", display, i))
		r.sorted = append(r.sorted, vkey[N]{hash: h, node: node, display: display})
	}
	sort.Slice(r.sorted, func(i, j int) bool {
		if r.sorted[i].hash != r.sorted[j].hash {
			return r.sorted[i].hash < r.sorted[j].hash
		}
		return r.sorted[i].display < r.sorted[j].display
	})
}

// RemoveNode removes every virtual key belonging to node. A no-op, leaving
// the sorted slice unchanged, if node is not a member.
func (r *Ring[N]) RemoveNode(node N) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeNodeLocked(node)
}

func (r *Ring[N]) removeNodeLocked(node N) {
	display := node.String()
	kept := r.sorted[:0]
	for _, k := range r.sorted {
		if k.display != display {
			kept = append(kept, k)
		}
	}
	r.sorted = kept
}

// GetNode returns the owner of key: the node whose virtual key is the
// smallest value >= hash(key), wrapping to the first virtual key if
// hash(key) exceeds every one (the ring is circular). Returns the zero
// value and false if the ring has no members.
func (r *Ring[N]) GetNode(key string) (N, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero N
	if len(r.sorted) == 0 {
		return zero, false
	}

	h := r.hash(key)
	idx := sort.Search(len(r.sorted), func(i int) bool {
		return r.sorted[i].hash >= h
	})
	if idx == len(r.sorted) {
		idx = 0
	}
	return r.sorted[idx].node, true
}

// Len returns the number of virtual keys currently on the ring (N*Replicas
// for N distinct members with no hash collisions).
func (r *Ring[N]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sorted)
}
