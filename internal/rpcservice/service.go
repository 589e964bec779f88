// Package rpcservice implements the cluster's request-routing state
// machine: for every Get/Put it consults the hash ring and either serves
// the request locally through the cache and durable store, or forwards it
// unmodified to the owning peer.
package rpcservice

import (
	"context"

	"github.com/rs/zerolog"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
	"github.com/jiisanda/pandapouch/internal/metrics"
	"github.com/jiisanda/pandapouch/internal/store"
	"github.com/jiisanda/pandapouch/lru"
	"github.com/jiisanda/pandapouch/peer"
	"github.com/jiisanda/pandapouch/ring"
)

// GetResult is the reply shape for Get and ForwardGet.
type GetResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// PutResult is the reply shape for Put and ForwardPut.
type PutResult struct {
	Success bool `json:"success"`
}

// JoinResult is the reply shape for JoinCluster.
type JoinResult struct {
	Success      bool      `json:"success"`
	CurrentNodes []peer.ID `json:"current_nodes"`
}

// LeaveResult is the reply shape for LeaveCluster.
type LeaveResult struct {
	Success bool `json:"success"`
}

// Forwarder issues Get/Put against a peer's forward-only endpoints. It is
// satisfied by peerclient.Client; kept as an interface here so this package
// never imports the transport.
type Forwarder interface {
	ForwardGet(ctx context.Context, owner peer.ID, key string) (GetResult, error)
	ForwardPut(ctx context.Context, owner peer.ID, key, value string) (PutResult, error)
}

// Service holds every collaborator a node needs to answer the five RPC
// operations: no package-level singletons, everything is an explicit
// field constructed once at startup.
type Service struct {
	cache      *lru.Cache[string, string]
	ring       *ring.Ring[peer.ID]
	store      *store.Store
	membership *Membership
	forwarder  Forwarder
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New constructs a Service. forwarder may be nil only in tests that never
// exercise the forward path.
func New(
	cache *lru.Cache[string, string],
	r *ring.Ring[peer.ID],
	st *store.Store,
	membership *Membership,
	forwarder Forwarder,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cache:      cache,
		ring:       r,
		store:      st,
		membership: membership,
		forwarder:  forwarder,
		metrics:    m,
		logger:     logger.With().Str("component", "rpcservice").Logger(),
	}
}

// Get implements the routing state machine for a client-facing Get: local
// read-through on self-ownership, forward-and-return-verbatim otherwise.
func (s *Service) Get(ctx context.Context, key string) (GetResult, error) {
	if key == "" {
		return GetResult{}, cerrors.EmptyKey()
	}

	owner, ok := s.ring.GetNode(key)
	if !ok {
		return GetResult{}, cerrors.NotOwner()
	}

	if owner.Equal(s.membership.Self()) {
		return s.localGet(ctx, key)
	}
	return s.forwardGet(ctx, owner, key)
}

// Put implements the routing state machine for a client-facing Put.
func (s *Service) Put(ctx context.Context, key, value string) (PutResult, error) {
	if key == "" {
		return PutResult{}, cerrors.EmptyKey()
	}

	owner, ok := s.ring.GetNode(key)
	if !ok {
		return PutResult{}, cerrors.NotOwner()
	}

	if owner.Equal(s.membership.Self()) {
		return s.localPut(ctx, key, value)
	}
	return s.forwardPut(ctx, owner, key, value)
}

// ForwardGet serves key from the local cache/store unconditionally,
// without consulting the ring — it is the non-recursive endpoint a peer
// calls once it has decided this node is the owner.
func (s *Service) ForwardGet(ctx context.Context, key string) (GetResult, error) {
	return s.localGet(ctx, key)
}

// ForwardPut upserts key/value locally unconditionally, without
// consulting the ring.
func (s *Service) ForwardPut(ctx context.Context, key, value string) (PutResult, error) {
	return s.localPut(ctx, key, value)
}

func (s *Service) localGet(ctx context.Context, key string) (GetResult, error) {
	if value, ok := s.cache.Get(key); ok {
		s.recordCache(true)
		return GetResult{Found: true, Value: value}, nil
	}
	s.recordCache(false)

	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return GetResult{}, err
	}
	if !ok {
		return GetResult{Found: false}, nil
	}

	s.cache.Put(key, value)
	return GetResult{Found: true, Value: value}, nil
}

func (s *Service) localPut(ctx context.Context, key, value string) (PutResult, error) {
	s.cache.Put(key, value)

	// Intentionally not rolled back on store failure: the spec fixes cache
	// and store as independently-owned state, not a transaction.
	if err := s.store.Put(ctx, key, value); err != nil {
		return PutResult{}, err
	}
	return PutResult{Success: true}, nil
}

func (s *Service) forwardGet(ctx context.Context, owner peer.ID, key string) (GetResult, error) {
	if s.forwarder == nil {
		return GetResult{}, cerrors.Wrap(cerrors.KindForwardConnect, "no forwarder configured", nil)
	}
	result, err := s.forwarder.ForwardGet(ctx, owner, key)
	s.recordForward("get", err)
	return result, err
}

func (s *Service) forwardPut(ctx context.Context, owner peer.ID, key, value string) (PutResult, error) {
	if s.forwarder == nil {
		return PutResult{}, cerrors.Wrap(cerrors.KindForwardConnect, "no forwarder configured", nil)
	}
	result, err := s.forwarder.ForwardPut(ctx, owner, key, value)
	s.recordForward("put", err)
	return result, err
}

// PrintAll always operates on the local cache — a diagnostic, never
// forwarded.
func (s *Service) PrintAll() []lru.Pair[string, string] {
	return s.cache.Snapshot()
}

// JoinCluster appends node to membership and to the ring. Idempotent.
func (s *Service) JoinCluster(node peer.ID) JoinResult {
	s.membership.Join(node)
	s.ring.AddNode(node)
	if s.metrics != nil {
		s.metrics.SetRingNodesActive(float64(len(s.membership.Nodes())))
	}
	return JoinResult{Success: true, CurrentNodes: s.membership.Nodes()}
}

// LeaveCluster removes node from membership and the ring. No-op success
// if node was never a member.
func (s *Service) LeaveCluster(node peer.ID) LeaveResult {
	s.membership.Leave(node)
	s.ring.RemoveNode(node)
	if s.metrics != nil {
		s.metrics.SetRingNodesActive(float64(len(s.membership.Nodes())))
	}
	return LeaveResult{Success: true}
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
	s.metrics.SetCacheSize(float64(s.cache.Len()))
}

func (s *Service) recordForward(op string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordForward(op, status)
}
