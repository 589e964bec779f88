// Package peerclient is the outbound side of forwarding: a thin HTTP
// client that re-issues a Get/Put against the owning peer's forward-only
// endpoints, classifies failures as connect errors versus errors the peer
// itself returned, and carries the originating request id across the hop
// so both nodes' logs correlate.
package peerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
	"github.com/jiisanda/pandapouch/internal/requestid"
	"github.com/jiisanda/pandapouch/internal/rpcservice"
	"github.com/jiisanda/pandapouch/peer"
)

// Client forwards Get/Put calls to peer nodes over HTTP. No connection
// pool beyond the default http.Transport's keep-alives, matching the
// spec's "no pooling required, but permitted" allowance.
type Client struct {
	http   *http.Client
	scheme string
}

// New constructs a Client with the given per-call timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		scheme: "http",
	}
}

type getRequest struct {
	Key string `json:"key"`
}

type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// ForwardGet issues a Get against owner's /internal/forward/get endpoint.
func (c *Client) ForwardGet(ctx context.Context, owner peer.ID, key string) (rpcservice.GetResult, error) {
	var result rpcservice.GetResult
	err := c.do(ctx, owner, "/internal/forward/get", getRequest{Key: key}, &result)
	return result, err
}

// ForwardPut issues a Put against owner's /internal/forward/put endpoint.
func (c *Client) ForwardPut(ctx context.Context, owner peer.ID, key, value string) (rpcservice.PutResult, error) {
	var result rpcservice.PutResult
	err := c.do(ctx, owner, "/internal/forward/put", putRequest{Key: key, Value: value}, &result)
	return result, err
}

func (c *Client) do(ctx context.Context, owner peer.ID, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return cerrors.Wrap(cerrors.KindForwardConnect, "marshaling forward request", err)
	}

	url := fmt.Sprintf("%s://%s%s", c.scheme, owner.String(), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return cerrors.Wrap(cerrors.KindForwardConnect, "creating forward request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.Header, requestid.FromContext(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return cerrors.ForwardConnect(owner.String(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return cerrors.ForwardConnect(owner.String(), err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if eb.Detail == "" {
			eb.Detail = fmt.Sprintf("peer returned status %d", resp.StatusCode)
		}
		return cerrors.ForwardRemote(owner.String(), fmt.Errorf("%s", eb.Detail))
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return cerrors.ForwardRemote(owner.String(), fmt.Errorf("decoding peer response: %w", err))
	}
	return nil
}
