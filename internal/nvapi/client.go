// Package nvapi implements the typed JSON request layer for the
// nvapi.nicovideo.jp surface: the meta/data envelope, the frontend header
// set, and per-endpoint records.
package nvapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const (
	// BaseURL is the nvapi host root.
	BaseURL = "https://nvapi.nicovideo.jp"
)

// Client executes envelope requests against nvapi.nicovideo.jp. The zero
// value is not usable; construct with New.
type Client struct {
	httpClient *http.Client
	userAgent  string
	language   string
}

func New(httpClient *http.Client, userAgent, language string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		language:   language,
	}
}

// Meta is the status block every nvapi envelope carries.
type Meta struct {
	Status    int    `json:"status"`
	ErrorCode string `json:"errorCode"`
}

type envelope struct {
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// GetJSON performs a GET and decodes the envelope's data into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, nil, out)
}

// PostJSON performs a JSON POST and decodes the envelope's data into out.
// extra headers are applied after the frontend set, so they may override it.
func (c *Client) PostJSON(ctx context.Context, url string, body any, extra http.Header, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, url, payload, extra, out)
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, extra http.Header, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	ApplyFrontendHeaders(req.Header, c.userAgent, c.language)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, values := range extra {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil || env.Meta.Status == 0 {
		// No decodable envelope; fall back to the transport status.
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{Endpoint: url, StatusCode: resp.StatusCode}
		}
		if err != nil {
			return err
		}
	}
	if env.Meta.Status >= 300 || env.Meta.ErrorCode != "" {
		return &APIError{Endpoint: url, Status: env.Meta.Status, Code: env.Meta.ErrorCode}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
