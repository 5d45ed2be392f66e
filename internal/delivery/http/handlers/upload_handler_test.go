package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"upload-finalizer/internal/domain/dto"
	consts "upload-finalizer/pkg/constants"
	fe "upload-finalizer/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUploadService struct {
	chunk     *dto.UploadChunkRequestDTO
	body      string
	statusReq *dto.UploadStatusRequestDTO
	cancelReq *dto.CancelUploadRequestDTO
	err       error
}

func (s *stubUploadService) UploadChunk(_ context.Context, req *dto.UploadChunkRequestDTO, body io.Reader) (*dto.UploadChunkResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, _ := io.ReadAll(body)
	s.chunk, s.body = req, string(data)
	resp := &dto.UploadChunkResponse{Status: consts.StatusQueued, RequestID: req.RequestID, Filename: req.Filename, TaskID: "task-1"}
	if req.ContentRange != "" {
		resp.Status, resp.TaskID = consts.StatusPartial, ""
	}
	return resp, nil
}

func (s *stubUploadService) GetUploadStatus(_ context.Context, req *dto.UploadStatusRequestDTO) (*dto.UploadStatusResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.statusReq = req
	return &dto.UploadStatusResponse{RequestID: req.RequestID, Filename: req.Filename, Key: "k", Status: consts.StatusReady}, nil
}

func (s *stubUploadService) CancelUpload(_ context.Context, req *dto.CancelUploadRequestDTO) (*dto.CancelUploadResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.cancelReq = req
	return &dto.CancelUploadResponse{Status: consts.StatusCanceled, Key: "k"}, nil
}

func newApp(svc *stubUploadService) *fiber.App {
	app := fiber.New()
	h := NewUploadHandler(svc, zap.NewNop())
	app.Post("/requests/:request_id/uploads", h.UploadChunk)
	app.Get("/requests/:request_id/uploads/status", h.UploadStatus)
	app.Delete("/requests/:request_id/uploads", h.CancelUpload)
	return app
}

func multipartRequest(t *testing.T, url, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestUploadChunkQueued(t *testing.T) {
	svc := &stubUploadService{}
	app := newApp(svc)

	req := multipartRequest(t, "/requests/FOIL-1/uploads", "letter.pdf", "hello", map[string]string{"update": "true", "checksum": "abc"})
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	var body dto.UploadChunkResponse
	decode(t, resp, &body)
	assert.Equal(t, consts.StatusQueued, body.Status)
	assert.Equal(t, "FOIL-1", svc.chunk.RequestID)
	assert.Equal(t, "letter.pdf", svc.chunk.Filename)
	assert.True(t, svc.chunk.IsUpdate)
	assert.Equal(t, "abc", svc.chunk.Checksum)
	assert.EqualValues(t, 5, svc.chunk.Size)
	assert.Equal(t, "hello", svc.body)
}

func TestUploadChunkPartial(t *testing.T) {
	svc := &stubUploadService{}
	app := newApp(svc)

	req := multipartRequest(t, "/requests/FOIL-1/uploads", "letter.pdf", "hello", nil)
	req.Header.Set("Content-Range", "bytes 0-4/10")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bytes 0-4/10", svc.chunk.ContentRange)
	assert.False(t, svc.chunk.IsUpdate)
}

func TestUploadChunkMissingFile(t *testing.T) {
	app := newApp(&stubUploadService{})

	resp, err := app.Test(multipartRequest(t, "/requests/FOIL-1/uploads", "", "", map[string]string{"update": "false"}))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadChunkErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed header", fe.ErrMalformedHeader(&fe.MalformedHeaderError{Header: "bytes 0-1/*", Reason: "unknown total"}), fiber.StatusBadRequest},
		{"bare header error", &fe.MalformedHeaderError{Header: "x", Reason: "missing unit"}, fiber.StatusBadRequest},
		{"chunk too large", fe.ErrChunkTooLarge(nil), fiber.StatusRequestEntityTooLarge},
		{"queue down", fe.ErrQueue(assert.AnError), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubUploadService{err: tt.err})

			resp, err := app.Test(multipartRequest(t, "/requests/FOIL-1/uploads", "a.txt", "x", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.want, resp.StatusCode)
			var body dto.ErrorResponse
			decode(t, resp, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestUploadStatus(t *testing.T) {
	svc := &stubUploadService{}
	app := newApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/requests/FOIL-1/uploads/status?filename=a.txt&update=1", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body dto.UploadStatusResponse
	decode(t, resp, &body)
	assert.Equal(t, consts.StatusReady, body.Status)
	assert.Equal(t, "FOIL-1", svc.statusReq.RequestID)
	assert.True(t, svc.statusReq.IsUpdate)
}

func TestUploadStatusRequiresFilename(t *testing.T) {
	app := newApp(&stubUploadService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/requests/FOIL-1/uploads/status", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancelUpload(t *testing.T) {
	svc := &stubUploadService{}
	app := newApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/requests/FOIL-1/uploads?filename=a.txt", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body dto.CancelUploadResponse
	decode(t, resp, &body)
	assert.Equal(t, consts.StatusCanceled, body.Status)
	assert.Equal(t, "a.txt", svc.cancelReq.Filename)
	assert.False(t, svc.cancelReq.IsUpdate)
}
