package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	maxEventBytes  = 4096
)

// Client is one device's websocket connection.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	userID int64
	events EventHandler
	send   chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, userID int64, events EventHandler) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		events: events,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump applies each incoming event. Successful results go to every
// stream of the child; errors only to this one.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxEventBytes)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			c.reply(Message{Type: TypeError, Error: "expected a JSON text frame"})
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.reply(Message{Type: TypeError, Error: "invalid JSON"})
			continue
		}

		res, err := c.events.HandleEvent(ctx, c.userID, ev.Title, ev.Status)
		if err != nil {
			msg := ErrorMessage(err)
			if msg.Error == "internal error" {
				c.hub.logger.Error("device stream event", "user_id", c.userID, "error", err)
			}
			c.reply(msg)
			continue
		}
		c.hub.Publish(c.userID, ResultMessage(res))
	}
}

// reply queues msg for this client only.
func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
