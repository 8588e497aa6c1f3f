package bybit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"streamcache/internal/bybit/memorystore"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxArgsPerRequest bounds the topics sent in one subscribe request.
const maxArgsPerRequest = 10

// WSClient handles WebSocket connection to Bybit and message routing.
type WSClient struct {
	url          string
	pingInterval time.Duration
	subMu        sync.Mutex // guards args
	args         []string
	conn         *websocket.Conn
	writeMu      sync.Mutex // gorilla allows one concurrent writer
	handler      func([]byte)
	symbolStore  *memorystore.MemorySymbolStore
	logger       *zap.Logger
}

// NewWSClient creates a new WebSocket client with the given URL and logger.
func NewWSClient(url string, pingInterval time.Duration, store *memorystore.MemorySymbolStore, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:          url,
		pingInterval: pingInterval,
		symbolStore:  store,
		logger:       logger,
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect establishes the WebSocket connection and subscribes to the kline and trade
// topics of every symbol in the symbol store. It does not start the listener.
func (c *WSClient) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.logger.Error("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		return err
	}
	c.conn = conn
	c.logger.Info("WebSocket connected", zap.String("url", c.url))

	// Store subscription arguments for future reconnects
	c.args = c.symbolStore.Topics(c.symbolStore.WsInterval)
	if err := c.send("subscribe", c.args); err != nil {
		c.logger.Error("Failed to send subscription", zap.Error(err))
		return err
	}
	c.logger.Info("subscribed", zap.Int("topics", len(c.args)))
	return nil
}

// Resubscribe diffs the current symbol store topics against the active subscription
// and sends the needed unsubscribe/subscribe requests.
func (c *WSClient) Resubscribe() error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	next := c.symbolStore.Topics(c.symbolStore.WsInterval)

	var removed, added []string
	for _, topic := range c.args {
		if !slices.Contains(next, topic) {
			removed = append(removed, topic)
		}
	}
	for _, topic := range next {
		if !slices.Contains(c.args, topic) {
			added = append(added, topic)
		}
	}

	if err := c.send("unsubscribe", removed); err != nil {
		return err
	}
	if err := c.send("subscribe", added); err != nil {
		return err
	}
	c.args = next
	c.logger.Info("subscription updated", zap.Int("added", len(added)), zap.Int("removed", len(removed)))
	return nil
}

// send writes op requests for topics in chunks.
func (c *WSClient) send(op string, topics []string) error {
	for chunk := range slices.Chunk(topics, maxArgsPerRequest) {
		msg := map[string]interface{}{
			"req_id": uuid.NewString(),
			"op":     op,
			"args":   chunk,
		}
		if err := c.writeJSON(msg); err != nil {
			return fmt.Errorf("websocket %s failed: %w", op, err)
		}
	}
	return nil
}

func (c *WSClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Listen reads messages until ctx is cancelled, reconnecting on read errors.
func (c *WSClient) Listen(ctx context.Context) {
	go c.keepAlive(ctx)
	go func() {
		<-ctx.Done()
		c.writeMu.Lock()
		_ = c.conn.Close()
		c.writeMu.Unlock()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))

			// Retry reconnecting until it works or ctx is done
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(3 * time.Second):
				}
				if err := c.reconnectAndResubscribe(); err != nil {
					c.logger.Warn("Retrying reconnect...", zap.Error(err))
					continue
				}
				c.logger.Info("Reconnected successfully")
				break
			}
			continue // Start listening again with the new connection
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// keepAlive sends the application-level ping Bybit expects to keep the connection open.
func (c *WSClient) keepAlive(ctx context.Context) {
	if c.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"req_id": uuid.NewString(), "op": "ping"}); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
			}
		}
	}
}

func (c *WSClient) reconnectAndResubscribe() error {
	// Attempt to connect to the WebSocket server
	newConn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	// Replace the current connection
	c.writeMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = newConn
	c.writeMu.Unlock()

	// Regenerate subscription topics based on current symbols
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.args = c.symbolStore.Topics(c.symbolStore.WsInterval)
	return c.send("subscribe", c.args)
}
