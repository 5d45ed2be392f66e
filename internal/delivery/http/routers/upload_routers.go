package routers

import (
	"upload-finalizer/internal/delivery/http/handlers"
	"upload-finalizer/internal/usecases"
	consts "upload-finalizer/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupUploadRoutes(app *fiber.App, uploadService usecases.UploadService, logger *zap.Logger) {
	uploadHandler := handlers.NewUploadHandler(uploadService, logger)

	api := app.Group("/api/v1")
	uploads := api.Group("/requests/:request_id/uploads")
	uploads.Post("/", uploadHandler.UploadChunk)
	uploads.Delete("/", uploadHandler.CancelUpload)
	uploads.Get("/status", uploadHandler.UploadStatus)
}

func SetupHealthRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": consts.StatusOK})
	})
}

// SetupSwaggerRoutes serves the UI and doc.json of the registered swag docs.
func SetupSwaggerRoutes(app *fiber.App) {
	app.Get("/swagger/*", swagger.HandlerDefault)
}
