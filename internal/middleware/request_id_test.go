package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(middleware.RequestIDKey).(string))
	})
	return app
}

func TestRequestID_Generated(t *testing.T) {
	app := setupApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	rid := resp.Header.Get(middleware.RequestIDHeader)
	_, err = uuid.Parse(rid)
	assert.NoError(t, err)
}

func TestRequestID_ReusesCallerHeader(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "till-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "till-42", resp.Header.Get(middleware.RequestIDHeader))
}
