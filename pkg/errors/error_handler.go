package errors

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HandleError writes err to the client. Only Code and Message leave the server;
// the wrapped cause is logged.
func HandleError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if err == nil {
		return nil
	}

	var ue *UploadError
	if As(err, &ue) {
		if ue.Err != nil {
			logger.Warn("upload error", zap.String("code", ue.Code), zap.Error(ue.Err))
		}

		var status int
		switch ue.Code {
		case CodeNotFound:
			status = fiber.StatusNotFound
		case CodeMalformedHeader, CodeInvalidRequestID, CodeInvalidFile:
			status = fiber.StatusBadRequest
		case CodeChunkTooLarge:
			status = fiber.StatusRequestEntityTooLarge
		default:
			status = fiber.StatusInternalServerError
		}

		return c.Status(status).JSON(fiber.Map{
			"error":   ue.Code,
			"message": ue.Message,
		})
	}

	var mh *MalformedHeaderError
	if As(err, &mh) {
		return HandleError(c, logger, ErrMalformedHeader(err))
	}

	logger.Error("unexpected error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   CodeInternal,
		"message": "Internal server error",
	})
}
