package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/lazyhydrate/pkg/hydrate"
	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

// Frame ops.
const (
	OpListen   = "listen"
	OpObserve  = "observe"
	OpMedia    = "media"
	OpIdle     = "idle"
	OpCancel   = "cancel"
	OpFire     = "fire"
	OpActivate = "activate"
)

// ErrClosed is returned when writing to a closed Conn.
var ErrClosed = errors.New("bridge: connection closed")

// Message is one frame in either direction.
type Message struct {
	Op         string    `json:"op"`
	ID         uint64    `json:"id,omitempty"`
	Root       string    `json:"root,omitempty"`
	Events     []string  `json:"events,omitempty"`
	Event      string    `json:"event,omitempty"`
	RootMargin string    `json:"rootMargin,omitempty"`
	Threshold  []float64 `json:"threshold,omitempty"`
	Query      string    `json:"query,omitempty"`
	Timeout    int64     `json:"timeout,omitempty"`
	Instance   string    `json:"instance,omitempty"`
}

// Config configures a Conn.
type Config struct {
	// ReadTimeout is the maximum idle time between client frames.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// MaxMessageSize is the read limit for client frames.
	MaxMessageSize int64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default connection settings.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4 * 1024,
	}
}

// Conn is the server side of one client connection.
type Conn struct {
	ws     *websocket.Conn
	config Config
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	nextID    uint64
	pending   map[uint64]func(Message)
	instances map[string]func()
	closed    bool
	done      chan struct{}
}

var (
	_ strategy.Host   = (*Conn)(nil)
	_ hydrate.Tracker = (*Conn)(nil)
)

// NewConn wraps an upgraded connection. Zero config fields take their
// defaults.
func NewConn(ws *websocket.Conn, config Config) *Conn {
	def := DefaultConfig()
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ws.SetReadLimit(config.MaxMessageSize)

	return &Conn{
		ws:        ws,
		config:    config,
		logger:    logger,
		pending:   make(map[uint64]func(Message)),
		instances: make(map[string]func()),
		done:      make(chan struct{}),
	}
}

// Done is closed when the connection closes.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close drops every registration and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.pending = make(map[uint64]func(Message))
	c.instances = make(map[string]func())
	c.mu.Unlock()

	close(c.done)
	return c.ws.Close()
}

// AfterFunc runs timers on the server clock.
func (c *Conn) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Listen asks the client to listen for events on root.
func (c *Conn) Listen(root string, events []string, fn func(string)) func() {
	return c.register(Message{Op: OpListen, Root: root, Events: events}, func(m Message) {
		fn(m.Event)
	})
}

// Observe asks the client to observe root for intersection.
func (c *Conn) Observe(root string, opts strategy.ObserverOptions, fn func()) func() {
	msg := Message{Op: OpObserve, Root: root, RootMargin: opts.RootMargin, Threshold: opts.Threshold}
	return c.register(msg, func(Message) { fn() })
}

// MatchMedia asks the client to watch a media query.
func (c *Conn) MatchMedia(query string, fn func()) func() {
	return c.register(Message{Op: OpMedia, Query: query}, func(Message) { fn() })
}

// RequestIdle asks the client for an idle callback.
func (c *Conn) RequestIdle(timeout time.Duration, fn func()) func() {
	return c.register(Message{Op: OpIdle, Timeout: timeout.Milliseconds()}, func(Message) { fn() })
}

// Track routes client activations for id to activate.
func (c *Conn) Track(id string, activate func()) func() {
	c.mu.Lock()
	if !c.closed {
		c.instances[id] = activate
	}
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.instances, id)
		c.mu.Unlock()
	}
}

// register sends msg under a fresh id. The returned func withdraws the
// registration and tells the client, unless it already fired.
func (c *Conn) register(msg Message, fn func(Message)) func() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = fn
	c.mu.Unlock()

	msg.ID = id
	if err := c.send(msg); err != nil {
		c.logger.Warn("bridge registration failed", "op", msg.Op, "id", id, "error", err)
		c.take(id)
		return func() {}
	}

	return func() {
		if c.take(id) == nil {
			return
		}
		if err := c.send(Message{Op: OpCancel, ID: id}); err != nil && !errors.Is(err, ErrClosed) {
			c.logger.Debug("bridge cancel failed", "id", id, "error", err)
		}
	}
}

// take removes and returns the pending callback for id.
func (c *Conn) take(id uint64) func(Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn := c.pending[id]
	delete(c.pending, id)
	return fn
}

func (c *Conn) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Op, err)
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Op, err)
	}
	return nil
}

// ReadLoop reads client frames until the connection fails or closes, then
// closes the Conn.
func (c *Conn) ReadLoop() {
	defer c.Close()

	for {
		c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("bridge read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Error("bridge frame decode error", "error", err)
			continue
		}

		switch msg.Op {
		case OpFire:
			if fn := c.take(msg.ID); fn != nil {
				fn(msg)
			} else {
				c.logger.Debug("fire for unknown registration", "id", msg.ID)
			}

		case OpActivate:
			c.mu.Lock()
			activate := c.instances[msg.Instance]
			c.mu.Unlock()
			if activate == nil {
				c.logger.Warn("activate for unknown instance", "instance", msg.Instance)
				continue
			}
			activate()

		default:
			c.logger.Warn("unknown bridge op", "op", msg.Op)
		}
	}
}
