package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/metrics"
)

// ErrSessionClosed indicates a delivery attempt on a handle whose
// transport has shut down. Callers treat it as a no-op.
var ErrSessionClosed = errors.New("session closed")

// client is one websocket session implementing presence.Handle. Outbound
// events are queued on a buffered channel drained by the write pump;
// a full queue drops the event rather than blocking the sender's path.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration
	metrics      *metrics.Metrics

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, sendBuffer int, writeTimeout, pingInterval time.Duration, m *metrics.Metrics) *client {
	return &client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		metrics:      m,
	}
}

// ID returns the unique identifier of this transport session.
func (c *client) ID() string {
	return c.id
}

// Deliver frames the event and queues it for the write pump.
func (c *client) Deliver(ev event.Event) error {
	raw, err := event.Marshal(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}

	select {
	case c.send <- raw:
		return nil
	default:
		c.metrics.EventsDropped.Inc()
		logrus.WithFields(logrus.Fields{
			"function":  "Deliver",
			"handle_id": c.id,
			"event":     ev.EventName(),
		}).Warn("Outbound queue full, event dropped")
		return nil
	}
}

// Close shuts the session down. Idempotent; the write pump closes the
// underlying connection once the queue is released.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	return nil
}

// writePump drains the outbound queue onto the websocket and keeps the
// connection alive with pings. It owns all writes to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				logrus.WithFields(logrus.Fields{
					"function":  "writePump",
					"handle_id": c.id,
					"error":     err,
				}).Debug("Write failed, closing session")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
