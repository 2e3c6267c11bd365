package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type client struct {
	id   string
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
}

func newClient(id string, hub *Hub, conn *websocket.Conn) *client {
	return &client{id: id, hub: hub, ws: conn, send: make(chan []byte, sendBuffer)}
}

// readPump forwards text frames to the hub until the connection fails, then
// reports the disconnect.
func (c *client) readPump(maxMessageBytes int64) {
	defer func() {
		c.hub.submit(hubOp{kind: opUnregister, client: c})
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("Read error on %s: %v", c.id, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !c.hub.submit(hubOp{kind: opMessage, client: c, frame: data}) {
			return
		}
	}
}

// writePump drains the send channel and keeps the connection alive with pings.
// It exits when the hub closes the channel or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
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
