package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time to wait for the peer's close frame after sending ours.
	closeGrace = time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	handshakeTimeout = 10 * time.Second
	defaultQueueSize = 64
)

// State is the lifecycle state of a Client
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handlers are the client callbacks. Each lifecycle callback fires at most once.
// Callbacks run on the client's goroutines and must not block for long.
type Handlers struct {
	OnOpen    func()
	OnError   func(err error)
	OnClose   func()
	OnMessage func(msg domain.ServerMessage)
}

// ClientConfig configures a Client
type ClientConfig struct {
	URL string
	// MetaInterval is the minimum spacing of non-hello metadata messages
	MetaInterval time.Duration
	// QueueSize bounds the outbound queue; frames beyond it are dropped
	QueueSize int
	// Hello, when set, is sent as the first message once the connection opens
	Hello   map[string]any
	Dialer  *websocket.Dialer
	Metrics *metrics.Metrics
	// Now is used for statistics and rate limiting; defaults to time.Now
	Now func() time.Time
}

// WriteData is one outbound websocket message
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is one logical session with the STT backend over a single websocket.
// It never reconnects: error and closed are terminal.
type Client struct {
	url      string
	dialer   *websocket.Dialer
	handlers Handlers
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	hello    map[string]any

	mu      sync.Mutex
	state   State
	closing bool
	conn    *websocket.Conn
	send    chan WriteData
	stats   entities.Statistics
	limiter *rate.Limiter

	done      chan struct{}
	openOnce  sync.Once
	errorOnce sync.Once
	closeOnce sync.Once
}

// Dial creates a client and starts connecting. OnOpen or OnError reports the outcome.
func Dial(ctx context.Context, cfg ClientConfig, handlers Handlers, logger *zap.Logger) *Client {
	c := NewClient(cfg, handlers, logger)
	c.Connect(ctx)
	return c
}

// NewClient creates a client in the connecting state. Nothing is dialed until Connect.
func NewClient(cfg ClientConfig, handlers Handlers, logger *zap.Logger) *Client {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout:  handshakeTimeout,
			EnableCompression: false,
		}
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	interval := cfg.MetaInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &Client{
		url:      cfg.URL,
		dialer:   dialer,
		handlers: handlers,
		logger:   logger.With(zap.String("url", cfg.URL)),
		metrics:  cfg.Metrics,
		now:      now,
		hello:    cfg.Hello,
		state:    StateConnecting,
		send:     make(chan WriteData, queueSize),
		stats:    entities.NewStatistics(now()),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns the current statistics snapshot
func (c *Client) Stats() domain.StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Snapshot(c.now())
}

// Done is closed once the connection has shut down and OnClose has returned
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Connect performs the handshake in the background. It must be called once.
func (c *Client) Connect(ctx context.Context) {
	go c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		c.fireClose()
		close(c.done)
		return
	}
	if err != nil {
		c.state = StateError
		c.mu.Unlock()
		c.logger.Error("WebSocket dial failed", zap.Error(err))
		c.fireError(err)
		c.fireClose()
		close(c.done)
		return
	}
	c.conn = conn
	c.state = StateConnected
	if c.hello != nil {
		c.sendMetadataLocked(domain.MetaKindHello, c.hello)
	}
	c.mu.Unlock()

	c.logger.Info("Connected to STT backend")
	c.metrics.SetConnected(true)
	c.fireOpen()

	go c.writePump()
	go c.readPump()
}

// SendAudioFrame transmits frame as a binary message. The frame is dropped,
// not queued, unless the connection is open.
func (c *Client) SendAudioFrame(frame audio.Frame) bool {
	payload := frame.Bytes()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enqueueLocked(WriteData{Type: websocket.BinaryMessage, Payload: payload}) {
		c.metrics.RecordFrameDropped()
		return false
	}
	c.stats.RecordFrame(len(payload))
	c.metrics.RecordFrameSent(len(payload))
	return true
}

// SendMetadata sends a meta envelope carrying data and the statistics snapshot.
// Non-hello kinds are limited to one message per meta interval.
func (c *Client) SendMetadata(kind string, data map[string]any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendMetadataLocked(kind, data)
}

func (c *Client) sendMetadataLocked(kind string, data map[string]any) bool {
	if !c.writableLocked() {
		return false
	}
	now := c.now()
	if kind != domain.MetaKindHello && !c.limiter.AllowN(now, 1) {
		return false
	}

	payload, err := json.Marshal(domain.NewMetaMessage(kind, data, c.stats.Snapshot(now)))
	if err != nil {
		c.logger.Warn("Failed to encode metadata", zap.String("kind", kind), zap.Error(err))
		return false
	}
	if !c.enqueueLocked(WriteData{Type: websocket.TextMessage, Payload: payload}) {
		return false
	}
	c.metrics.RecordMetadataSent()
	return true
}

// SendControl sends a control command
func (c *Client) SendControl(cmd domain.Command) bool {
	payload, err := json.Marshal(domain.ControlMessage{Command: cmd})
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enqueueLocked(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// Flush asks the backend to finalize buffered audio
func (c *Client) Flush() bool {
	return c.SendControl(domain.CommandFlush)
}

// Stop sends the stop command and closes the connection
func (c *Client) Stop() {
	c.SendControl(domain.CommandStop)
	c.Close()
}

// Close closes the connection after already queued messages are written.
// It is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return
	}
	c.closing = true
	if c.state == StateConnecting || c.state == StateConnected {
		c.state = StateClosed
	}
	close(c.send)
}

func (c *Client) writableLocked() bool {
	return c.state == StateConnected && !c.closing
}

func (c *Client) enqueueLocked(msg WriteData) bool {
	if !c.writableLocked() {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump dispatches inbound messages until the connection ends
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		c.metrics.SetConnected(false)
		c.fireClose()
		close(c.done)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.dispatch(message)
	}
}

func (c *Client) handleReadError(err error) {
	c.mu.Lock()
	closing := c.closing
	remoteClose := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
	failed := !closing && !remoteClose
	if failed {
		c.state = StateError
	} else if c.state == StateConnected {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if failed {
		c.logger.Error("WebSocket error", zap.Error(err))
		c.fireError(err)
		return
	}
	c.logger.Info("WebSocket closed", zap.Bool("local", closing))
}

// writeFailed moves an open client to the error state so later sends are
// dropped instead of queued behind a dead writer.
func (c *Client) writeFailed(err error) {
	c.mu.Lock()
	failed := !c.closing && c.state == StateConnected
	if failed {
		c.state = StateError
	}
	c.mu.Unlock()

	c.logger.Error("Failed to write message", zap.Error(err))
	if failed {
		c.fireError(err)
	}
}

func (c *Client) dispatch(message []byte) {
	msg, err := domain.DecodeServerMessage(message)
	if err != nil {
		c.metrics.RecordMalformed()
		c.logger.Debug("Ignoring malformed server message", zap.Int("size", len(message)))
		return
	}
	if msg == nil {
		c.logger.Debug("Ignoring unknown server message type")
		return
	}

	c.metrics.RecordMessage(string(msg.MessageType()))
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(msg)
	}
}

// writePump is the only writer of the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				select {
				case <-c.done:
				case <-time.After(closeGrace):
				}
				c.conn.Close()
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.writeFailed(err)
				c.conn.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) fireOpen() {
	c.openOnce.Do(func() {
		if c.handlers.OnOpen != nil {
			c.handlers.OnOpen()
		}
	})
}

func (c *Client) fireError(err error) {
	if err == nil {
		err = errors.New("websocket failure")
	}
	c.errorOnce.Do(func() {
		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
	})
}

func (c *Client) fireClose() {
	c.closeOnce.Do(func() {
		if c.handlers.OnClose != nil {
			c.handlers.OnClose()
		}
	})
}
