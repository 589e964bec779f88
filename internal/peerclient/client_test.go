package peerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
	"github.com/jiisanda/pandapouch/internal/requestid"
	"github.com/jiisanda/pandapouch/peer"
)

func testPeer(t *testing.T, srv *httptest.Server) peer.ID {
	t.Helper()
	host, portStr, err := splitHostPort(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return peer.ID{Host: host, Port: port}
}

func splitHostPort(url string) (string, string, error) {
	trimmed := strings.TrimPrefix(url, "http://")
	parts := strings.SplitN(trimmed, ":", 2)
	return parts[0], parts[1], nil
}

func TestForwardGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/forward/get", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"found": true, "value": "v"})
	}))
	defer srv.Close()

	c := New(time.Second)
	res, err := c.ForwardGet(context.Background(), testPeer(t, srv), "k")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "v", res.Value)
}

func TestForwardPutSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/forward/put", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := New(time.Second)
	res, err := c.ForwardPut(context.Background(), testPeer(t, srv), "k", "v")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestForwardGetPropagatesRequestID(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(requestid.Header)
		json.NewEncoder(w).Encode(map[string]any{"found": false})
	}))
	defer srv.Close()

	ctx := requestid.WithRequestID(context.Background(), "origin-id")
	c := New(time.Second)
	_, err := c.ForwardGet(ctx, testPeer(t, srv), "k")
	require.NoError(t, err)
	assert.Equal(t, "origin-id", gotHeader)
}

func TestForwardGetRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"detail": "backend unavailable"})
	}))
	defer srv.Close()

	c := New(time.Second)
	_, err := c.ForwardGet(context.Background(), testPeer(t, srv), "k")
	require.Error(t, err)
	assert.Equal(t, cerrors.KindForwardRemote, cerrors.KindOf(err))
}

func TestForwardGetConnectError(t *testing.T) {
	c := New(50 * time.Millisecond)
	_, err := c.ForwardGet(context.Background(), peer.ID{Host: "127.0.0.1", Port: 1}, "k")
	require.Error(t, err)
	assert.Equal(t, cerrors.KindForwardConnect, cerrors.KindOf(err))
}
