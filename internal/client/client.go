// Package client talks to a running petd over its HTTP API. The CLI
// subcommands and the terminal watch view use it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/desk-pet/internal/api"
	"github.com/talgya/desk-pet/internal/interaction"
	"github.com/talgya/desk-pet/internal/items"
	"github.com/talgya/desk-pet/internal/persistence"
	"github.com/talgya/desk-pet/internal/pet"
)

// ErrRefused is returned when the pet declines an item or the item is unknown.
var ErrRefused = errors.New("item refused")

// Client targets one petd instance.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for baseURL, e.g. http://127.0.0.1:8787.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Snapshot is everything the watch view shows in one poll.
type Snapshot struct {
	Status  pet.Status
	Items   []api.ItemView
	History []persistence.StatEvent
}

// Observe fetches status, items and recent history. History is optional:
// a daemon without a database still yields a snapshot.
func (c *Client) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := c.getJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := c.getJSON(ctx, "/api/v1/items", &snap.Items); err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	if err := c.getJSON(ctx, "/api/v1/needs/history?limit=8", &snap.History); err != nil {
		snap.History = nil
	}
	return snap, nil
}

// Status fetches GET /api/v1/status.
func (c *Client) Status(ctx context.Context) (pet.Status, error) {
	var st pet.Status
	err := c.getJSON(ctx, "/api/v1/status", &st)
	return st, err
}

// Items fetches the catalog with availability.
func (c *Client) Items(ctx context.Context) ([]api.ItemView, error) {
	var out []api.ItemView
	err := c.getJSON(ctx, "/api/v1/items", &out)
	return out, err
}

// History fetches the most recent stat changes.
func (c *Client) History(ctx context.Context, limit int) ([]persistence.StatEvent, error) {
	var out []persistence.StatEvent
	err := c.getJSON(ctx, "/api/v1/needs/history?limit="+strconv.Itoa(limit), &out)
	return out, err
}

// Click sends one click.
func (c *Client) Click(ctx context.Context) (interaction.Classification, error) {
	var cl interaction.Classification
	err := c.postJSON(ctx, "/api/v1/click", nil, &cl)
	return cl, err
}

// UseItem uses an item. A refusal returns ErrRefused wrapped with the
// daemon's reason.
func (c *Client) UseItem(ctx context.Context, id string) (*items.Reaction, error) {
	var r items.Reaction
	err := c.postJSON(ctx, "/api/v1/items/"+url.PathEscape(id)+"/use", nil, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Reset restores default needs and clears item usage. clearHistory also
// drops the stat history.
func (c *Client) Reset(ctx context.Context, clearHistory bool) (api.NeedsView, error) {
	path := "/api/v1/reset"
	if clearHistory {
		path += "?history=clear"
	}
	var v api.NeedsView
	err := c.postJSON(ctx, path, nil, &v)
	return v, err
}

// ResetItem clears one item's usage count and cooldown.
func (c *Client) ResetItem(ctx context.Context, id string) (api.ItemView, error) {
	var v api.ItemView
	err := c.postJSON(ctx, "/api/v1/items/"+url.PathEscape(id)+"/reset", nil, &v)
	return v, err
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, target)
}

func (c *Client) postJSON(ctx context.Context, path string, body, target any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, target)
}

func (c *Client) do(req *http.Request, path string, target any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusConflict, http.StatusNotFound, http.StatusTooManyRequests:
		var av struct {
			Reason string `json:"reason"`
		}
		json.NewDecoder(resp.Body).Decode(&av)
		if av.Reason == "" {
			av.Reason = strings.ToLower(http.StatusText(resp.StatusCode))
		}
		return fmt.Errorf("%w: %s", ErrRefused, av.Reason)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d: %s", req.Method, path, resp.StatusCode, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
