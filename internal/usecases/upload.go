package usecases

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"upload-finalizer/internal/domain/dto"
	"upload-finalizer/internal/domain/entities"
	"upload-finalizer/internal/domain/repositories"
	consts "upload-finalizer/pkg/constants"
	fe "upload-finalizer/pkg/errors"
	"upload-finalizer/pkg/file"

	"go.uber.org/zap"
)

// TaskSubmitter hands a task to the background runner without waiting for it.
type TaskSubmitter interface {
	Submit(ctx context.Context, task entities.UploadTask) (entities.UploadTask, error)
}

type UploadService interface {
	UploadChunk(ctx context.Context, req *dto.UploadChunkRequestDTO, body io.Reader) (*dto.UploadChunkResponse, error)
	GetUploadStatus(ctx context.Context, req *dto.UploadStatusRequestDTO) (*dto.UploadStatusResponse, error)
	CancelUpload(ctx context.Context, req *dto.CancelUploadRequestDTO) (*dto.CancelUploadResponse, error)
}

type uploadService struct {
	quarantine   repositories.QuarantineRepository
	status       repositories.StatusStore
	submitter    TaskSubmitter
	maxChunkSize int64
	logger       *zap.Logger
}

func NewUploadService(quarantine repositories.QuarantineRepository, status repositories.StatusStore, submitter TaskSubmitter, maxChunkSize int64, logger *zap.Logger) UploadService {
	return &uploadService{
		quarantine:   quarantine,
		status:       status,
		submitter:    submitter,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
}

// UploadChunk stores one chunk in quarantine. The finalization task is submitted
// once the chunk that completes the file arrives, or immediately for an upload
// without a Content-Range header.
func (s *uploadService) UploadChunk(ctx context.Context, req *dto.UploadChunkRequestDTO, body io.Reader) (*dto.UploadChunkResponse, error) {
	if err := file.ValidateRequestID(req.RequestID); err != nil {
		return nil, fe.ErrInvalidRequestID(err)
	}
	filename := filepath.Base(req.Filename)
	if filename == "." || filename == string(filepath.Separator) || filename == "" {
		return nil, fe.ErrInvalidFile(fmt.Errorf("invalid filename %q", req.Filename))
	}

	key := file.MakeKey(req.RequestID, filename, req.IsUpdate)
	resp := &dto.UploadChunkResponse{
		Status:    consts.StatusPartial,
		RequestID: req.RequestID,
		Filename:  filename,
		Key:       key,
	}

	if req.ContentRange == "" {
		size, err := s.quarantine.WriteFile(req.RequestID, filename, req.IsUpdate, body)
		if err != nil {
			return nil, fe.ErrChunkNotSave(err)
		}
		resp.Received = size
		return s.submit(ctx, req, filename, resp)
	}

	start, total, err := file.ParseContentRange(req.ContentRange)
	if err != nil {
		return nil, fe.ErrMalformedHeader(err)
	}
	if req.Size > s.maxChunkSize {
		return nil, fe.ErrChunkTooLarge(fmt.Errorf("chunk of %d bytes, limit %d", req.Size, s.maxChunkSize))
	}
	if start+req.Size > total {
		return nil, fe.ErrMalformedHeader(&fe.MalformedHeaderError{Header: req.ContentRange, Reason: "chunk runs past the instance length"})
	}

	progress, err := s.quarantine.WriteChunk(req.RequestID, filename, req.IsUpdate, start, total, body)
	if err != nil {
		return nil, fe.ErrChunkNotSave(err)
	}
	resp.Received = progress.Received
	resp.Total = total

	switch {
	case !progress.Complete:
		return resp, nil
	case !progress.Completed:
		// a repeated chunk of a file that is already queued
		resp.Status = consts.StatusQueued
		return resp, nil
	}
	return s.submit(ctx, req, filename, resp)
}

func (s *uploadService) submit(ctx context.Context, req *dto.UploadChunkRequestDTO, filename string, resp *dto.UploadChunkResponse) (*dto.UploadChunkResponse, error) {
	path := s.quarantine.Path(req.RequestID, filename, req.IsUpdate)
	sum, err := file.ValidateFileHash(path, req.Checksum)
	if err != nil {
		_ = s.quarantine.Remove(req.RequestID, filename, req.IsUpdate)
		return nil, fe.ErrInvalidFile(err)
	}

	task, err := s.submitter.Submit(ctx, entities.UploadTask{
		RequestID:      req.RequestID,
		QuarantinePath: path,
		IsUpdate:       req.IsUpdate,
		Checksum:       sum,
	})
	if err != nil {
		return nil, fe.ErrQueue(err)
	}
	s.logger.Info("upload queued for finalization",
		zap.String("request_id", req.RequestID),
		zap.String("filename", filename),
		zap.String("task_id", task.ID))

	resp.Status = consts.StatusQueued
	resp.TaskID = task.ID
	return resp, nil
}

func (s *uploadService) GetUploadStatus(ctx context.Context, req *dto.UploadStatusRequestDTO) (*dto.UploadStatusResponse, error) {
	if err := file.ValidateRequestID(req.RequestID); err != nil {
		return nil, fe.ErrInvalidRequestID(err)
	}
	key := file.MakeKey(req.RequestID, req.Filename, req.IsUpdate)

	status, ok, err := s.status.Get(ctx, key)
	if err != nil {
		return nil, fe.ErrStatusStore(err)
	}

	resp := &dto.UploadStatusResponse{
		RequestID: req.RequestID,
		Filename:  req.Filename,
		Key:       key,
		Status:    consts.StatusAbsent,
	}
	if ok {
		resp.Status = string(status)
	}
	return resp, nil
}

// CancelUpload drops a quarantined upload and its status key. A finalization
// already in flight is not interrupted.
func (s *uploadService) CancelUpload(ctx context.Context, req *dto.CancelUploadRequestDTO) (*dto.CancelUploadResponse, error) {
	if err := file.ValidateRequestID(req.RequestID); err != nil {
		return nil, fe.ErrInvalidRequestID(err)
	}
	filename := filepath.Base(req.Filename)
	key := file.MakeKey(req.RequestID, filename, req.IsUpdate)

	if err := s.quarantine.Remove(req.RequestID, filename, req.IsUpdate); err != nil {
		return nil, fe.ErrCannotRemove(err)
	}
	if err := s.status.Delete(ctx, key); err != nil {
		return nil, fe.ErrStatusStore(err)
	}

	return &dto.CancelUploadResponse{
		Status:  consts.StatusCanceled,
		Key:     key,
		Message: "upload canceled",
	}, nil
}
