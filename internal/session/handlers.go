package session

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"backend-stagehunter/internal/cursor"
	"backend-stagehunter/internal/stream"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrStageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidLayout), errors.Is(err, ErrUnknownEvent):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// sendFrame queues f for client without blocking. A full buffer already holds
// newer frames, so f is dropped.
func sendFrame(client *stream.Client, f cursor.Frame) bool {
	payload, err := json.Marshal(f)
	if err != nil {
		return false
	}
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

func fail(err error) error {
	return fiber.NewError(statusFor(err), err.Error())
}

// RegisterRoutes exposes session lifecycle, pointer input and the frame
// stream. Frames published by the manager reach websocket viewers through hub.
func RegisterRoutes(r fiber.Router, mgr *Manager, hub *stream.Hub) {
	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		sess, err := mgr.Create(c.Context(), req)
		if err != nil {
			return fail(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	})

	r.Get("/sessions/:id/frame", func(c *fiber.Ctx) error {
		frame, err := mgr.Frame(c.Params("id"))
		if err != nil {
			return fail(err)
		}
		return c.JSON(frame)
	})

	r.Post("/sessions/:id/events", func(c *fiber.Ctx) error {
		var ev Event
		if err := c.BodyParser(&ev); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		frame, err := mgr.Dispatch(c.Params("id"), ev)
		if err != nil {
			return fail(err)
		}
		return c.JSON(frame)
	})

	r.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		sum, err := mgr.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return fail(err)
		}
		return c.JSON(sum)
	})

	r.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := mgr.Close(c.Context(), c.Params("id")); err != nil {
			return fail(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	upgrade := func(c *fiber.Ctx) error {
		if _, err := mgr.Get(c.Params("id")); err != nil {
			return fail(err)
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}

	r.Get("/sessions/:id/ws", upgrade, websocket.New(func(c *websocket.Conn) {
		id := c.Params("id")
		client := hub.Register(id)
		if frame, err := mgr.Frame(id); err == nil {
			sendFrame(client, frame)
		}
		stream.Pump(c, client, hub, func(msg []byte) {
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				return
			}
			if _, err := mgr.Dispatch(id, ev); err != nil {
				mgr.logger.Debug("dropped websocket event", "session_id", id, "error", err)
			}
		})
	}))
}
