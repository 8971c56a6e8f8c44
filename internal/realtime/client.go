package realtime

import (
	"sync"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	connIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	connIDLength   = 16

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

// Client is a websocket connection. Frames are read on one goroutine and
// handed to the hub in order; outbound events go through a bounded queue
// drained by a second goroutine.
type Client struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan Event
	hub    *Hub

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded websocket for the authenticated user.
func (h *Hub) NewClient(ws *websocket.Conn, userID string) (*Client, error) {
	id, err := nanoid.GenerateString(connIDAlphabet, connIDLength)
	if err != nil {
		return nil, err
	}
	return &Client{
		id:     id,
		userID: userID,
		ws:     ws,
		send:   make(chan Event, h.opts.SendQueue),
		hub:    h,
		done:   make(chan struct{}),
	}, nil
}

func (c *Client) ID() string         { return c.id }
func (c *Client) AuthUserID() string { return c.userID }

// Send queues ev. A full queue drops the event rather than stall the caller.
func (c *Client) Send(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		c.hub.metrics.drop(ev.Name)
		logrus.WithFields(logrus.Fields{
			"connID": c.id,
			"event":  ev.Name,
		}).Warn("Send queue full, dropping event")
		return false
	}
}

// Close stops both pumps. The write pump sends the close frame and then
// closes the socket, which unblocks the read pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Run registers the client with the hub and blocks until the connection ends.
func (c *Client) Run() {
	c.hub.Connect(c)
	go c.writePump()

	defer func() {
		c.hub.Disconnect(c)
		c.Close()
	}()
	c.readPump()
}

func (c *Client) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("connID", c.id).Warn("WebSocket read error")
			}
			return
		}
		c.hub.Handle(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case ev := <-c.send:
			frame, err := ev.Encode()
			if err != nil {
				logrus.WithError(err).WithField("event", ev.Name).Error("Failed to encode event")
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				logrus.WithError(err).WithField("connID", c.id).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
