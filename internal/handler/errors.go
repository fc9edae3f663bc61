package handler

import (
	"errors"
	"strconv"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps a service error onto its status code. Storage failures
// are logged in full and reported with a generic message.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         err.Error(),
			"current_stock": insufficient.Current,
			"requested":     insufficient.Requested,
		})
	case errors.Is(err, service.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCategory):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Any("request_id", c.Locals("request_id")),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid product ID")
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
