package httpapi

import (
	"bytes"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-display/internal/store"
)

var validate = validator.New()

// Snapshots is the read side of the frame history.
type Snapshots interface {
	GetLatest() (store.Snapshot, error)
	GetRecent(limit int) ([]store.Snapshot, error)
}

// FrameEncoder renders the current panel image as PNG.
type FrameEncoder interface {
	EncodePNG(w io.Writer) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, snapshots Snapshots, frame FrameEncoder) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "forecast-display",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/display/current", func(c *fiber.Ctx) error {
		snapshot, err := snapshots.GetLatest()
		if err != nil {
			return notRendered(err, "failed to read current frame")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/display/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		if req.Limit == 0 {
			req.Limit = defaultHistoryLimit
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		recent, err := snapshots.GetRecent(req.Limit)
		if err != nil {
			return notRendered(err, "failed to read frame history")
		}
		return c.JSON(fiber.Map{
			"limit":     req.Limit,
			"snapshots": recent,
		})
	})

	v1.Get("/display/frame.png", func(c *fiber.Ctx) error {
		if _, err := snapshots.GetLatest(); err != nil {
			return notRendered(err, "failed to read current frame")
		}
		var buf bytes.Buffer
		if err := frame.EncodePNG(&buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode frame")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	})
}

const defaultHistoryLimit = 10

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

func notRendered(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "nothing rendered yet")
	}
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}
