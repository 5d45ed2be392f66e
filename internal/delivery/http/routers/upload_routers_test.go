package routers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "upload-finalizer/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerServesUploadDocs(t *testing.T) {
	app := fiber.New()
	SetupSwaggerRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"/requests/{request_id}/uploads"`)
	assert.Contains(t, string(body), `"/requests/{request_id}/uploads/status"`)
	assert.Contains(t, string(body), `"basePath": "/api/v1"`)
}

func TestHealthRoute(t *testing.T) {
	app := fiber.New()
	SetupHealthRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
