// Package realtime consumes the Supabase realtime websocket and delivers
// postgres change notifications to the snapshot store in batches. It owns
// only the connect/subscribe/heartbeat lifecycle; reconnection policy and
// anything beyond batch delivery stay with the caller.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

const heartbeatInterval = 30 * time.Second

// BatchHandler receives each flushed batch of change events. A single
// handler is registered per session.
type BatchHandler func(ctx context.Context, batch []remote.ChangeEvent)

type Config struct {
	ProjectURL string
	APIKey     string
	// Tables to subscribe to for postgres changes.
	Tables []string
	// FlushInterval is how long events are buffered before delivery. Zero
	// means 250ms.
	FlushInterval time.Duration
}

// Client is a phoenix-protocol websocket client for the realtime endpoint.
type Client struct {
	url     string
	apiKey  string
	tables  []string
	flush   time.Duration
	handler BatchHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	ref     int
	pending []remote.ChangeEvent
	done    chan struct{}
}

func New(cfg Config, handler BatchHandler) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("batch handler is required")
	}
	wsURL := cfg.ProjectURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL = strings.TrimRight(wsURL, "/") + "/realtime/v1/websocket?apikey=" + cfg.APIKey + "&vsn=1.0.0"

	flush := cfg.FlushInterval
	if flush == 0 {
		flush = 250 * time.Millisecond
	}

	return &Client{
		url:     wsURL,
		apiKey:  cfg.APIKey,
		tables:  cfg.Tables,
		flush:   flush,
		handler: handler,
	}, nil
}

// Connect dials the websocket, joins one channel per table, and starts the
// read, heartbeat, and flush loops. Call only after the initial snapshot
// load has settled, so there is always a snapshot to patch.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	c.done = make(chan struct{})

	for _, table := range c.tables {
		if err := c.join(table); err != nil {
			conn.Close()
			c.conn = nil
			return err
		}
	}

	go c.readLoop(ctx)
	go c.heartbeatLoop()
	go c.flushLoop(ctx)

	return nil
}

// Close sends a normal closure and stops the loops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	close(c.done)
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// phoenix wire message
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
	JoinRef string          `json:"join_ref,omitempty"`
}

// postgres_changes payload carried inside a phoenix message
type changePayload struct {
	Data struct {
		Type      string        `json:"type"` // INSERT, UPDATE, DELETE
		Table     string        `json:"table"`
		Schema    string        `json:"schema"`
		Record    remote.Record `json:"record"`
		OldRecord remote.Record `json:"old_record"`
	} `json:"data"`
}

func (c *Client) join(table string) error {
	c.ref++
	ref := fmt.Sprintf("%d", c.ref)
	payload := map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]any{
				{"event": "*", "schema": "public", "table": table},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal join payload: %w", err)
	}
	msg := phxMessage{
		Topic:   "realtime:public:" + table,
		Event:   "phx_join",
		Payload: raw,
		Ref:     ref,
		JoinRef: ref,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("join %s: %w", table, err)
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Printf("realtime read failed, feed stopped: %v", err)
			}
			return
		}

		var msg phxMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Event != "postgres_changes" {
			continue
		}

		var payload changePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Printf("realtime: undecodable change payload on %s: %v", msg.Topic, err)
			continue
		}

		ev := remote.ChangeEvent{
			Type:   remote.EventType(payload.Data.Type),
			Table:  payload.Data.Table,
			Record: payload.Data.Record,
		}
		// delete payloads carry the row under old_record
		if ev.Type == remote.EventDelete && len(ev.Record) == 0 {
			ev.Record = payload.Data.OldRecord
		}
		if ev.Table == "" || (ev.Type != remote.EventInsert &&
			ev.Type != remote.EventUpdate && ev.Type != remote.EventDelete) {
			continue
		}

		c.mu.Lock()
		c.pending = append(c.pending, ev)
		c.mu.Unlock()
	}
}

// flushLoop hands buffered events to the handler in arrival order. Batching
// keeps a burst of row changes a single atomic store transition.
func (c *Client) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(c.flush)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.deliver(ctx)
			return
		case <-ticker.C:
			c.deliver(ctx)
		}
	}
}

func (c *Client) deliver(ctx context.Context) {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) > 0 {
		c.handler(ctx, batch)
	}
}

func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				c.ref++
				msg := phxMessage{
					Topic:   "phoenix",
					Event:   "heartbeat",
					Payload: json.RawMessage(`{}`),
					Ref:     fmt.Sprintf("%d", c.ref),
				}
				if err := c.conn.WriteJSON(msg); err != nil {
					log.Printf("realtime heartbeat failed: %v", err)
				}
			}
			c.mu.Unlock()
		}
	}
}
