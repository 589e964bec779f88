package requestid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	ctx, id := New(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
	assert.False(t, Forwarded(ctx), "a locally originated request is never marked forwarded")
}

func TestFromContext_Missing(t *testing.T) {
	id := FromContext(context.Background())
	assert.NotEmpty(t, id) // generates new UUID
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-123")
	assert.Equal(t, "test-123", FromContext(ctx))
}

// TestPropagate_AdoptsIncomingID models a forwarded call: the owning node
// must log under the same id the originating node already assigned, not
// mint a new one, so the two nodes' log lines for one logical request join.
func TestPropagate_AdoptsIncomingID(t *testing.T) {
	ctx, id := Propagate(context.Background(), "origin-req-id")
	assert.Equal(t, "origin-req-id", id)
	assert.Equal(t, "origin-req-id", FromContext(ctx))
	assert.True(t, Forwarded(ctx))
}

// TestPropagate_MintsWhenNoIncomingID models a client call arriving
// directly at this node: there is no origin id to adopt, so it behaves
// exactly like New.
func TestPropagate_MintsWhenNoIncomingID(t *testing.T) {
	ctx, id := Propagate(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
	assert.False(t, Forwarded(ctx))
}

func TestForwarded_FalseWithoutMarker(t *testing.T) {
	assert.False(t, Forwarded(context.Background()))
	assert.False(t, Forwarded(WithRequestID(context.Background(), "plain-id")))
}
