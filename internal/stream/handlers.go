package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes a read-only frame stream per session. Anything the
// client sends is discarded; the read loop only detects disconnects.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		Pump(c, hub.Register(c.Params("sessionID")), hub, nil)
	}))
}

// Pump writes the client's frames to the socket until either side goes away,
// then unregisters the client. Text messages from the client are handed to
// onMessage when it is set.
func Pump(c *websocket.Conn, client *Client, hub *Hub, onMessage func([]byte)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		if onMessage != nil && mt == websocket.TextMessage {
			onMessage(msg)
		}
	}
	hub.Unregister(client)
	<-done
}
