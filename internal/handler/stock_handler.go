package handler

import (
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StockHandler struct {
	service service.StockService
	log     *zap.Logger
}

func NewStockHandler(s service.StockService, log *zap.Logger) *StockHandler {
	return &StockHandler{service: s, log: log}
}

func (h *StockHandler) RegisterRoutes(router fiber.Router) {
	stock := router.Group("/stock")
	stock.Post("/movements", h.CreateMovement)
	stock.Get("/reconciliation", h.GetReconciliation)
}

func (h *StockHandler) CreateMovement(c *fiber.Ctx) error {
	var in service.RecordMovementInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.service.RecordMovement(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock movement recorded", "data": result})
}

// GetReconciliation compares every stored stock level with its ledger total.
func (h *StockHandler) GetReconciliation(c *fiber.Ctx) error {
	report, err := h.service.Reconcile(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(report)
}
