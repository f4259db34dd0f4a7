package push

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
	"github.com/google/uuid"
)

// #region conn-state

// ConnState is the exposed connection state of the push channel.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// #endregion conn-state

// #region applier

// Applier is the local store surface incoming server state is reconciled
// into. Satisfied by *store.Store.
type Applier interface {
	Update(p state.Partial)
	ApplyDelta(p state.Partial)
	Replace(s state.LimbicState)
	ApplyInteraction(kind string)
}

// #endregion applier

// #region config

// Config tunes the push-channel client.
type Config struct {
	URL        string
	Backoff    Backoff
	QueueDepth int    // bound on sends queued while disconnected
	TokenDepth int    // bound on remembered idempotency tokens
	Dial       Dialer // defaults to DialWebSocket
}

const (
	defaultQueueDepth = 64
	defaultTokenDepth = 1024
)

// PushURL derives the push-channel endpoint from the backend base URL.
func PushURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/ws/limbic"
}

// #endregion config

// #region client-struct

// Client maintains the persistent push channel: it reconnects with
// exponential backoff while disconnected, queues outbound sends up to a
// bound, flushes them in original order on reconnect, and suppresses echoes
// of its own sends via idempotency tokens.
type Client struct {
	cfg   Config
	store Applier

	connState atomic.Int32
	dropped   atomic.Int64

	mu         sync.Mutex
	conn       Conn
	queue      []Message
	tokens     map[string]struct{}
	tokenOrder []string
	rnd        *rand.Rand

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a push client reconciling into store. It does not
// connect until Start.
func NewClient(cfg Config, store Applier) *Client {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.TokenDepth <= 0 {
		cfg.TokenDepth = defaultTokenDepth
	}
	if cfg.Dial == nil {
		cfg.Dial = DialWebSocket
	}
	return &Client{
		cfg:    cfg,
		store:  store,
		tokens: make(map[string]struct{}),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// #endregion client-struct

// #region lifecycle

// Start launches the connection loop.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Close tears the client down: reconnect attempts stop and the send queue
// is abandoned.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.queue = nil
	c.mu.Unlock()
	c.wg.Wait()
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return ConnState(c.connState.Load())
}

// Dropped returns how many queued sends were discarded past the queue bound.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Client) setState(s ConnState) {
	c.connState.Store(int32(s))
}

// #endregion lifecycle

// #region run

func (c *Client) run(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		c.setState(Connecting)
		conn, err := c.cfg.Dial(ctx, c.cfg.URL)
		if err != nil {
			c.setState(Disconnected)
			if ctx.Err() != nil {
				return
			}
			attempt++
			delay := c.cfg.Backoff.Delay(attempt, c.rnd)
			log.Printf("push: dial %s failed (attempt %d, retry in %s): %v", c.cfg.URL, attempt, delay, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		attempt = 0

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(Connected)
		c.flushQueue()

		c.readLoop(ctx, conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
		c.setState(Disconnected)
	}
}

// readLoop consumes frames until the connection dies. Transport errors end
// the loop and feed the reconnect policy; they are not surfaced to callers.
func (c *Client) readLoop(ctx context.Context, conn Conn) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("push: read failed, reconnecting: %v", err)
			}
			return
		}
		c.handle(msg)
	}
}

// #endregion run

// #region handle

// handle reconciles one incoming frame into the local store. A frame
// carrying a token we assigned to an already-applied outbound send is an
// echo and is skipped.
func (c *Client) handle(msg Message) {
	if msg.Token != "" && c.consumeToken(msg.Token) {
		return
	}
	switch msg.Type {
	case TypeStateReplace:
		if msg.State != nil {
			c.store.Replace(*msg.State)
		}
	case TypeStateDelta:
		if msg.Delta != nil {
			c.store.ApplyDelta(*msg.Delta)
		}
	default:
		log.Printf("push: ignoring frame of unknown type %q", msg.Type)
	}
}

// #endregion handle

// #region send

// SendInteraction applies a local interaction and notifies the backend. The
// assigned token marks the mutation as already applied so the backend's
// echo is not applied twice.
func (c *Client) SendInteraction(kind string) {
	token := c.newToken()
	c.store.ApplyInteraction(kind)
	c.Send(Message{Type: TypeInteraction, Kind: kind, Token: token})
}

// SendUpdate applies a local partial update and notifies the backend.
func (c *Client) SendUpdate(p state.Partial) {
	token := c.newToken()
	c.store.Update(p)
	c.Send(Message{Type: TypeStateDelta, Delta: &p, Token: token})
}

// Send writes msg to the channel, or queues it while disconnected. Never
// blocks the caller. Past the queue bound the oldest queued send is dropped
// and counted.
func (c *Client) Send(msg Message) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.enqueueLocked(msg)
		c.mu.Unlock()
		return
	}
	err := conn.WriteMessage(msg)
	if err != nil {
		c.enqueueLocked(msg)
	}
	c.mu.Unlock()
	if err != nil {
		log.Printf("push: write failed, queued for reconnect: %v", err)
		conn.Close()
	}
}

func (c *Client) enqueueLocked(msg Message) {
	if len(c.queue) >= c.cfg.QueueDepth {
		dropped := c.queue[0]
		c.queue = c.queue[1:]
		c.dropped.Add(1)
		log.Printf("push: send queue full (depth %d), dropping oldest %q frame", c.cfg.QueueDepth, dropped.Type)
	}
	c.queue = append(c.queue, msg)
}

// flushQueue delivers queued sends in original order. Undelivered remainder
// stays queued, still ordered, for the next connection.
func (c *Client) flushQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) > 0 {
		if c.conn == nil {
			return
		}
		if err := c.conn.WriteMessage(c.queue[0]); err != nil {
			log.Printf("push: queue flush interrupted: %v", err)
			return
		}
		c.queue = c.queue[1:]
	}
}

// #endregion send

// #region tokens

// newToken registers a fresh idempotency token, evicting the oldest past
// the bound.
func (c *Client) newToken() string {
	token := uuid.New().String()
	c.mu.Lock()
	c.tokens[token] = struct{}{}
	c.tokenOrder = append(c.tokenOrder, token)
	if len(c.tokenOrder) > c.cfg.TokenDepth {
		delete(c.tokens, c.tokenOrder[0])
		c.tokenOrder = c.tokenOrder[1:]
	}
	c.mu.Unlock()
	return token
}

// consumeToken reports whether token is one of ours and forgets it.
func (c *Client) consumeToken(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tokens[token]; !ok {
		return false
	}
	delete(c.tokens, token)
	for i, t := range c.tokenOrder {
		if t == token {
			c.tokenOrder = append(c.tokenOrder[:i], c.tokenOrder[i+1:]...)
			break
		}
	}
	return true
}

// #endregion tokens
