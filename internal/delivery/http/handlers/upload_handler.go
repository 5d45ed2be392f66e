package handlers

import (
	"strconv"

	"upload-finalizer/internal/domain/dto"
	"upload-finalizer/internal/usecases"
	fe "upload-finalizer/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploadService usecases.UploadService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService usecases.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// UploadChunk
//
// @Summary      Upload File
// @Description  Stores a whole file or one Content-Range chunk in quarantine. The
// @Description  chunk completing the file queues it for scanning and relocation.
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        request_id     path      string true  "Request ID"
// @Param        update         formData  bool   false "Replacement of an existing file"
// @Param        checksum       formData  string false "sha256 of the whole file"
// @Param        file           formData  file   true  "File or chunk"
// @Param        Content-Range  header    string false "bytes <start>-<end>/<total>"
// @Success      202            {object}  dto.UploadChunkResponse
// @Success      200            {object}  dto.UploadChunkResponse "Partial upload"
// @Failure      400            {object}  dto.ErrorResponse
// @Failure      413            {object}  dto.ErrorResponse
// @Router       /requests/{request_id}/uploads [post]
func (h *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   fe.CodeInvalidFile,
			Message: "missing file",
		})
	}

	req := &dto.UploadChunkRequestDTO{
		RequestID:    c.Params("request_id"),
		Filename:     fileHeader.Filename,
		IsUpdate:     parseBool(c.FormValue("update")),
		ContentRange: c.Get(fiber.HeaderContentRange),
		Checksum:     c.FormValue("checksum"),
		Size:         fileHeader.Size,
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fe.HandleError(c, h.logger, fe.ErrChunkNotSave(err))
	}
	defer src.Close()

	resp, err := h.uploadService.UploadChunk(c.UserContext(), req, src)
	if err != nil {
		return fe.HandleError(c, h.logger, err)
	}

	status := fiber.StatusOK
	if resp.TaskID != "" {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(resp)
}

// UploadStatus
//
// @Summary      Get Upload Status
// @Description  Reports scanning, ready or absent for one upload
// @Tags         Upload
// @Produce      json
// @Param        request_id  path   string true  "Request ID"
// @Param        filename    query  string true  "File name"
// @Param        update      query  bool   false "Replacement of an existing file"
// @Success      200         {object}  dto.UploadStatusResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /requests/{request_id}/uploads/status [get]
func (h *UploadHandler) UploadStatus(c *fiber.Ctx) error {
	req := &dto.UploadStatusRequestDTO{
		RequestID: c.Params("request_id"),
		Filename:  c.Query("filename"),
		IsUpdate:  parseBool(c.Query("update")),
	}
	if req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   fe.CodeInvalidFile,
			Message: "filename is required",
		})
	}

	resp, err := h.uploadService.GetUploadStatus(c.UserContext(), req)
	if err != nil {
		return fe.HandleError(c, h.logger, err)
	}
	return c.JSON(resp)
}

// CancelUpload
//
// @Summary      Cancel Upload
// @Description  Drops a quarantined upload and its status
// @Tags         Upload
// @Produce      json
// @Param        request_id  path   string true  "Request ID"
// @Param        filename    query  string true  "File name"
// @Param        update      query  bool   false "Replacement of an existing file"
// @Success      200         {object}  dto.CancelUploadResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /requests/{request_id}/uploads [delete]
func (h *UploadHandler) CancelUpload(c *fiber.Ctx) error {
	req := &dto.CancelUploadRequestDTO{
		RequestID: c.Params("request_id"),
		Filename:  c.Query("filename"),
		IsUpdate:  parseBool(c.Query("update")),
	}
	if req.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   fe.CodeInvalidFile,
			Message: "filename is required",
		})
	}

	resp, err := h.uploadService.CancelUpload(c.UserContext(), req)
	if err != nil {
		return fe.HandleError(c, h.logger, err)
	}
	return c.JSON(resp)
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
