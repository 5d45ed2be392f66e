package errors

import "fmt"

type UploadError struct {
	Code    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

const (
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
	CodeMalformedHeader   = "malformed_header"
	CodeInvalidRequestID  = "invalid_request_id"
	CodeInvalidFile       = "invalid_file"
	CodeChunkTooLarge     = "chunk_too_large"
	CodeChunkNotSave      = "chunk_not_save"
	CodeDirectoryCreation = "directory_creation_failed"
	CodeMove              = "move_failed"
	CodeStatusStore       = "status_store_error"
	CodeQueue             = "queue_error"
	CodeCannotStat        = "cannot_stat"
	CodeCannotRemove      = "cannot_remove"
)

var (
	ErrNotFound = func(err error) *UploadError {
		return &UploadError{Code: CodeNotFound, Message: "File not found", Err: err}
	}
	ErrInternal = func(err error) *UploadError {
		return &UploadError{Code: CodeInternal, Message: "Internal server error", Err: err}
	}
	ErrMalformedHeader = func(err error) *UploadError {
		return &UploadError{Code: CodeMalformedHeader, Message: "Malformed Content-Range header", Err: err}
	}
	ErrInvalidRequestID = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidRequestID, Message: "Invalid request id", Err: err}
	}
	ErrInvalidFile = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidFile, Message: "File could not be read", Err: err}
	}
	ErrChunkTooLarge = func(err error) *UploadError {
		return &UploadError{Code: CodeChunkTooLarge, Message: "Chunk exceeds the maximum chunk size", Err: err}
	}
	ErrChunkNotSave = func(err error) *UploadError {
		return &UploadError{Code: CodeChunkNotSave, Message: "Chunk could not be saved", Err: err}
	}
	ErrDirectoryCreation = func(err error) *UploadError {
		return &UploadError{Code: CodeDirectoryCreation, Message: "Destination directory could not be created", Err: err}
	}
	ErrMove = func(err error) *UploadError {
		return &UploadError{Code: CodeMove, Message: "File could not be moved to its destination", Err: err}
	}
	ErrStatusStore = func(err error) *UploadError {
		return &UploadError{Code: CodeStatusStore, Message: "Upload status could not be updated", Err: err}
	}
	ErrQueue = func(err error) *UploadError {
		return &UploadError{Code: CodeQueue, Message: "Task could not be queued", Err: err}
	}
	ErrCannotStat = func(err error) *UploadError {
		return &UploadError{Code: CodeCannotStat, Message: "Stat failed", Err: err}
	}
	ErrCannotRemove = func(err error) *UploadError {
		return &UploadError{Code: CodeCannotRemove, Message: "File could not be removed", Err: err}
	}
)

// HasCode reports whether err, or an error it wraps, is an UploadError with the given code.
func HasCode(err error, code string) bool {
	var ue *UploadError
	if As(err, &ue) {
		return ue.Code == code
	}
	return false
}
