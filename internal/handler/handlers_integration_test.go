package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/handler"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/middleware"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupApp wires the API over a seeded in-memory database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testdb.New(t)
	log := zap.NewNop()

	_, err := repository.SeedCatalog(t.Context(), db)
	require.NoError(t, err)

	productRepo := repository.NewProductRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	stockService := service.NewStockService(db, ledgerRepo, productRepo, nil, log)
	catalogService := service.NewCatalogService(db, productRepo, repository.NewCategoryRepo(db), stockService, nil, log)
	dashService := service.NewDashboardService(ledgerRepo, productRepo)

	app := fiber.New()
	app.Use(middleware.RequestID())

	api := app.Group("/api/v1")
	handler.NewProductHandler(catalogService, stockService, log).RegisterRoutes(api)
	handler.NewStockHandler(stockService, log).RegisterRoutes(api)
	handler.NewDashboardHandler(dashService, log).RegisterRoutes(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

type productView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	StockLevel   int    `json:"stock_level"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	IsActive     bool   `json:"is_active"`
}

func products(t *testing.T, app *fiber.App) map[string]productView {
	t.Helper()
	status, raw := do(t, app, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, status)

	var list []productView
	require.NoError(t, json.Unmarshal(raw, &list))
	byName := make(map[string]productView, len(list))
	for _, p := range list {
		byName[p.Name] = p
	}
	return byName
}

func TestListProductsAndCategories(t *testing.T) {
	app := setupApp(t)

	byName := products(t, app)
	require.Len(t, byName, 4)
	assert.Equal(t, 48, byName["Bar One"].StockLevel)
	assert.Equal(t, "Confectionery", byName["Bar One"].CategoryName)

	status, raw := do(t, app, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, status)
	var categories []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &categories))
	assert.Len(t, categories, len(repository.DefaultCategories))
}

func TestRecordSaleThroughAPI(t *testing.T) {
	app := setupApp(t)
	bar := products(t, app)["Bar One"]

	status, raw := do(t, app, http.MethodPost, "/api/v1/stock/movements", map[string]interface{}{
		"product_id":    bar.ID,
		"movement_type": "SALE",
		"quantity":      20,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var created struct {
		Message string `json:"message"`
		Data    struct {
			MovementID     uint `json:"movement_id"`
			QuantityChange int  `json:"quantity_change"`
			NewStockLevel  int  `json:"new_stock_level"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "Stock movement recorded", created.Message)
	assert.Equal(t, -20, created.Data.QuantityChange)
	assert.Equal(t, 28, created.Data.NewStockLevel)

	// Overselling is a conflict and leaves stock untouched
	status, raw = do(t, app, http.MethodPost, "/api/v1/stock/movements", map[string]interface{}{
		"product_id":    bar.ID,
		"movement_type": "SALE",
		"quantity":      50,
	})
	require.Equal(t, http.StatusConflict, status)
	var conflict map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &conflict))
	assert.EqualValues(t, 28, conflict["current_stock"])
	assert.EqualValues(t, 50, conflict["requested"])
	assert.Contains(t, conflict["error"], "current stock 28")

	assert.Equal(t, 28, products(t, app)["Bar One"].StockLevel)

	status, raw = do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d/movements", bar.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var movements []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &movements))
	require.Len(t, movements, 2)
	assert.Equal(t, "SALE", movements[0]["movement_type"])
	assert.Contains(t, movements[0], "timestamp")

	status, raw = do(t, app, http.MethodGet, "/api/v1/stock/reconciliation", nil)
	require.Equal(t, http.StatusOK, status)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, true, report["consistent"])
}

func TestRecordMovementRejections(t *testing.T) {
	app := setupApp(t)
	pen := products(t, app)["Blue Ballpoint Pen"]

	cases := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"malformed json", `{"product_id":`, http.StatusBadRequest},
		{"fractional quantity", fmt.Sprintf(`{"product_id":%d,"movement_type":"RECEIPT","quantity":2.5}`, pen.ID), http.StatusBadRequest},
		{"zero quantity", map[string]interface{}{"product_id": pen.ID, "movement_type": "RECEIPT", "quantity": 0}, http.StatusBadRequest},
		{"unknown type", map[string]interface{}{"product_id": pen.ID, "movement_type": "GIFT", "quantity": 1}, http.StatusBadRequest},
		{"unknown product", map[string]interface{}{"product_id": 9999, "movement_type": "RECEIPT", "quantity": 1}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := do(t, app, http.MethodPost, "/api/v1/stock/movements", tc.body)
			assert.Equal(t, tc.status, status, string(raw))
		})
	}

	assert.Equal(t, 200, products(t, app)["Blue Ballpoint Pen"].StockLevel)
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)
	snacks := products(t, app)["Lays Salted Chips"].CategoryID

	status, raw := do(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":          "Simba Chips",
		"description":   "Cheese and onion",
		"price":         "14.50",
		"category_id":   snacks,
		"initial_stock": 30,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID         uint   `json:"id"`
			Name       string `json:"name"`
			StockLevel int    `json:"stock_level"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "Product created", created.Message)
	assert.Equal(t, 30, created.Data.StockLevel)
	path := fmt.Sprintf("/api/v1/products/%d", created.Data.ID)

	status, raw = do(t, app, http.MethodPut, path, map[string]interface{}{"price": 15, "low_stock_threshold": 8})
	require.Equal(t, http.StatusOK, status, string(raw))

	// stock_level is not patchable
	status, _ = do(t, app, http.MethodPut, path, map[string]interface{}{"stock_level": 999})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = do(t, app, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.EqualValues(t, 30, view["stock_level"])
	assert.EqualValues(t, 8, view["low_stock_threshold"])

	status, _ = do(t, app, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, products(t, app), "Simba Chips")
}

func TestProductRejections(t *testing.T) {
	app := setupApp(t)
	lays := products(t, app)["Lays Salted Chips"]

	status, _ := do(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name": "Mystery", "price": 2, "category_id": 999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name": "", "price": 2, "category_id": lays.CategoryID,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name": "Gold Bar", "price": 1e9, "category_id": lays.CategoryID,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPut, fmt.Sprintf("/api/v1/products/%d", lays.ID), map[string]interface{}{"category_id": 999})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/products/9999", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/products/9999/movements", nil)
	assert.Equal(t, http.StatusNotFound, status)

	assert.Len(t, products(t, app), 4)
}

func TestDashboardEndpoints(t *testing.T) {
	app := setupApp(t)

	status, raw := do(t, app, http.MethodGet, "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, status)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.EqualValues(t, 4, stats["total_products"])
	assert.EqualValues(t, 398, stats["total_units"])

	status, raw = do(t, app, http.MethodGet, "/api/v1/dashboard/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	var low []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &low))
	assert.Empty(t, low)

	status, raw = do(t, app, http.MethodGet, "/api/v1/dashboard/stock-movement?days=3", nil)
	require.Equal(t, http.StatusOK, status)
	var chart struct {
		Period int                      `json:"period"`
		Data   []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &chart))
	assert.Equal(t, 3, chart.Period)
	require.Len(t, chart.Data, 1)
	assert.EqualValues(t, 398, chart.Data[0]["inbound"])
}
