// Package requestid propagates a correlation id across an RPC's whole
// lifetime, including the hop across nodes when a request is forwarded to
// the owning peer. A node handling a client call mints a fresh id; a node
// handling a forwarded call instead adopts the id from the X-Request-ID
// header so both nodes' logs for the same logical request can be joined on
// one value.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request id across a forward hop.
const Header = "X-Request-ID"

type idKey struct{}
type forwardedKey struct{}

// WithRequestID returns a context carrying the given request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// FromContext extracts the request id from context, or generates a new one
// if none was ever set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(idKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New mints a fresh request id for a request originating at this node and
// returns the enriched context and the id.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Propagate adopts incoming as the request id when present (a forwarded
// call carrying the origin node's id), marking the context as forwarded;
// otherwise it behaves like New, minting a fresh id for a request that
// originated at this node.
func Propagate(ctx context.Context, incoming string) (context.Context, string) {
	if incoming == "" {
		return New(ctx)
	}
	ctx = WithRequestID(ctx, incoming)
	ctx = context.WithValue(ctx, forwardedKey{}, true)
	return ctx, incoming
}

// Forwarded reports whether the request id in ctx was adopted from an
// inbound forward rather than minted locally.
func Forwarded(ctx context.Context) bool {
	v, ok := ctx.Value(forwardedKey{}).(bool)
	return ok && v
}
