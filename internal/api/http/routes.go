package httpapi

import (
	"bufio"
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/room-climate/internal/climate"
	"github.com/i474232898/room-climate/internal/remote"
	"github.com/i474232898/room-climate/internal/stream"
	"github.com/i474232898/room-climate/internal/supervisor"
)

var validate = validator.New()

// Sensor is the sensor process lifecycle as seen by the API.
type Sensor interface {
	Start() error
	Stop()
	IsRunning() bool
	Status() supervisor.Status
}

// Emitter sends a control state to the air conditioner.
type Emitter interface {
	Emit(ctx context.Context, s remote.State) (string, error)
}

// Handlers bundles what the routes serve from.
type Handlers struct {
	Store      climate.Store
	Sensor     Sensor
	Hub        *stream.Hub
	Controller *remote.Controller
	Emitter    Emitter

	// Lifetime bounds every open stream; cancel it before shutting the
	// app down.
	Lifetime context.Context
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	if h.Lifetime == nil {
		h.Lifetime = context.Background()
	}

	v1 := app.Group("/api/v1")

	v1.Get("/temperature/latest", func(c *fiber.Ctx) error {
		r, ok := h.Store.Latest()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no temperature reading yet")
		}
		return c.JSON(r)
	})

	v1.Get("/temperature/hourly", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"measurements": h.Store.Hourly(),
		})
	})

	v1.Get("/temperature/stream", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Cache-Control")

		ctx, cancel := context.WithCancel(h.Lifetime)
		sub := h.Hub.Subscribe(ctx)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()

			// Comments keep idle connections probed while there is no data.
			heartbeat := time.NewTicker(stream.HeartbeatInterval)
			defer heartbeat.Stop()

			for {
				select {
				case r, ok := <-sub.C:
					if !ok {
						return
					}
					if err := stream.WriteEvent(w, r); err != nil {
						return
					}
				case <-heartbeat.C:
					if err := stream.WriteHeartbeat(w); err != nil {
						return
					}
				}
				if err := w.Flush(); err != nil {
					log.Printf("DEBUG: stream: consumer %s disconnected: %v", sub.ID, err)
					return
				}
			}
		}))
		return nil
	})

	v1.Get("/sensor/status", func(c *fiber.Ctx) error {
		return c.JSON(h.Sensor.Status())
	})

	v1.Post("/sensor/start", func(c *fiber.Ctx) error {
		if err := h.Sensor.Start(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(h.Sensor.Status())
	})

	v1.Post("/sensor/stop", func(c *fiber.Ctx) error {
		if !h.Sensor.IsRunning() {
			return fiber.NewError(fiber.StatusConflict, supervisor.ErrNotRunning.Error())
		}
		h.Sensor.Stop()
		return c.JSON(h.Sensor.Status())
	})

	v1.Get("/air-control", func(c *fiber.Ctx) error {
		state, err := h.Controller.State()
		if err != nil {
			if errors.Is(err, remote.ErrNoState) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read air-control state")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    state,
		})
	})

	v1.Post("/air-control", func(c *fiber.Ctx) error {
		var state remote.State
		if err := c.BodyParser(&state); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(state); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out, err := h.Emitter.Emit(c.UserContext(), state)
		if err != nil {
			var exitErr *remote.ExitError
			switch {
			case errors.Is(err, remote.ErrUnresolved):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, remote.ErrCircuitOpen):
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			case errors.As(err, &exitErr):
				log.Printf("ERROR: air-control: %v", err)
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			default:
				log.Printf("ERROR: air-control: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "failed to run air-control command")
			}
		}

		h.Controller.SetState(state)
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Air control command completed successfully",
			"out":     out,
		})
	})
}
