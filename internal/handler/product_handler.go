package handler

import (
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog service.CatalogService
	stock   service.StockService
	log     *zap.Logger
}

func NewProductHandler(catalog service.CatalogService, stock service.StockService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, stock: stock, log: log}
}

func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.GetProducts)
	products.Post("/", h.CreateProduct)
	products.Get("/:id", h.GetProduct)
	products.Put("/:id", h.UpdateProduct)
	products.Delete("/:id", h.RetireProduct)
	products.Get("/:id/movements", h.GetMovements)

	router.Get("/categories", h.GetCategories)
}

func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListActiveProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.CreateProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var in service.UpdateProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// RetireProduct hides a product from the catalog. Its ledger stays intact.
func (h *ProductHandler) RetireProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	retired, err := h.catalog.RetireProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product retired", "data": retired})
}

// GetMovements returns a product's ledger, newest first.
// Query params: limit (default 50)
func (h *ProductHandler) GetMovements(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	movements, err := h.stock.ListMovements(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(movements)
}

func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(categories)
}
