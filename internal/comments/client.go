package comments

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/famomatic/nicov1/internal/nvapi"
)

// expiredTokenCode is the error code a thread server answers with once a
// thread key has aged out.
const expiredTokenCode = "EXPIRED_TOKEN"

// Client posts thread queries to a video's comment server.
type Client struct {
	api *nvapi.Client
}

// NewClient wraps api for comment server calls.
func NewClient(api *nvapi.Client) *Client {
	return &Client{api: api}
}

type threadsRequest struct {
	Params      json.RawMessage   `json:"params"`
	ThreadKey   string            `json:"threadKey"`
	Additionals threadAdditionals `json:"additionals"`
}

type threadAdditionals struct {
	When int64 `json:"when"`
}

// Threads fetches one window of comments ending at the when timestamp
// (unix seconds). The params payload is forwarded verbatim from watch data.
func (c *Client) Threads(ctx context.Context, server string, params json.RawMessage, threadKey string, when int64) (*ThreadsData, error) {
	endpoint := strings.TrimSuffix(server, "/") + "/v1/threads"
	req := threadsRequest{
		Params:      params,
		ThreadKey:   threadKey,
		Additionals: threadAdditionals{When: when},
	}
	var data ThreadsData
	if err := c.api.PostJSON(ctx, endpoint, req, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RefreshThreadKey obtains a new thread key for the video.
func (c *Client) RefreshThreadKey(ctx context.Context, videoID string) (string, error) {
	data, err := c.api.ThreadKey(ctx, videoID)
	if err != nil {
		return "", err
	}
	return data.ThreadKey, nil
}

// IsExpiredKey reports whether err is the thread server rejecting a stale
// thread key.
func IsExpiredKey(err error) bool {
	return nvapi.IsCode(err, expiredTokenCode)
}
