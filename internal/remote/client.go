// Package remote implements the data-service boundary: flat wire records, a
// backend-neutral query shape, and a PostgREST client speaking the Supabase
// REST dialect.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

type ClientConfig struct {
	ProjectURL string
	// APIKey is sent as both apikey and bearer token; use the service key for
	// backend deployments, the anon key only for development.
	APIKey  string
	Timeout time.Duration
}

// Client performs CRUD against /rest/v1 of a Supabase-compatible project.
type Client struct {
	prefix string
	apiKey string
	http   *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		prefix: strings.TrimRight(cfg.ProjectURL, "/") + "/rest/v1",
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}, nil
}

// Select returns all rows of a table matching the query.
func (c *Client) Select(ctx context.Context, table string, q Query) ([]Record, error) {
	path := c.prefix + "/" + url.PathEscape(table)
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode rows from %s: %w", table, err)
	}
	return records, nil
}

// GetByID fetches a single row; ErrNotFound when no row matches.
func (c *Client) GetByID(ctx context.Context, table, id string) (Record, error) {
	records, err := c.Select(ctx, table, NewQuery().Eq("id", id).WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Insert creates a row and returns the stored representation.
func (c *Client) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal insert for %s: %w", table, err)
	}

	body, err := c.do(ctx, http.MethodPost, c.prefix+"/"+url.PathEscape(table), payload,
		map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return nil, err
	}
	return firstRecord(body)
}

// Update patches the row with the given id and returns the stored row.
func (c *Client) Update(ctx context.Context, table, id string, patch Record) (Record, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal update for %s: %w", table, err)
	}

	path := c.prefix + "/" + url.PathEscape(table) + "?" + NewQuery().Eq("id", id).Encode()
	body, err := c.do(ctx, http.MethodPatch, path, payload,
		map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return nil, err
	}
	rec, err := firstRecord(body)
	if err != nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Upsert inserts or merges on the given conflict column.
func (c *Client) Upsert(ctx context.Context, table string, rec Record, onConflict string) (Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal upsert for %s: %w", table, err)
	}

	path := c.prefix + "/" + url.PathEscape(table)
	if onConflict != "" {
		path += "?on_conflict=" + url.QueryEscape(onConflict)
	}
	body, err := c.do(ctx, http.MethodPost, path, payload,
		map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"})
	if err != nil {
		return nil, err
	}
	return firstRecord(body)
}

// Delete removes the row with the given id. Deleting a missing id is a no-op.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	path := c.prefix + "/" + url.PathEscape(table) + "?" + NewQuery().Eq("id", id).Encode()
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func firstRecord(body []byte) (Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		// PostgREST may return a bare object when Accept asks for one
		var rec Record
		if err2 := json.Unmarshal(body, &rec); err2 == nil {
			return rec, nil
		}
		return nil, fmt.Errorf("decode representation: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty representation")
	}
	return records[0], nil
}
