package handler

import (
	"strconv"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(s service.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log}
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	dashboard := router.Group("/dashboard")
	dashboard.Get("/stats", h.GetDashboardStats)
	dashboard.Get("/low-stock", h.GetLowStock)
	dashboard.Get("/stock-movement", h.GetStockMovement)
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	daysStr := c.Query("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(stats)
}

func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStockProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}
