package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-agent/internal/store"
)

const defaultObservationLimit = 10

var validate = validator.New()

// RegisterRoutes wires the read-only memory handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, mem *store.Memory) {
	v1 := app.Group("/api/v1")

	v1.Get("/memory", func(c *fiber.Ctx) error {
		return c.JSON(mem.Snapshot())
	})

	v1.Get("/memory/decisions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"city":      mem.Snapshot().City,
			"decisions": mem.Decisions(),
		})
	})

	v1.Get("/memory/latest", func(c *fiber.Ctx) error {
		rec, err := mem.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no decisions recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read memory")
		}
		return c.JSON(rec)
	})

	v1.Get("/memory/observations", func(c *fiber.Ctx) error {
		var q observationsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obs := mem.Observations()
		if len(obs) > q.Limit {
			obs = obs[len(obs)-q.Limit:]
		}
		return c.JSON(fiber.Map{
			"limit":        q.Limit,
			"observations": obs,
		})
	})
}

// observationsQuery holds query parameters for the observations endpoint.
type observationsQuery struct {
	Limit int `validate:"min=1,max=1000"`
}

func (q *observationsQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		q.Limit = defaultObservationLimit
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	q.Limit = n
	return nil
}
