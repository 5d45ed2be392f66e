package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Is and As are re-exported so callers importing this package as "errors" keep the stdlib helpers.
var (
	Is  = stderrors.Is
	As  = stderrors.As
	New = stderrors.New
)

// MalformedHeaderError is returned when a Content-Range value does not have
// the "bytes <start>-<end>/<total>" shape.
type MalformedHeaderError struct {
	Header string
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed content-range %q: %s", e.Header, e.Reason)
}

// InfectedFileError means the scanner found (or is presumed to have found) the
// file infected. The file is gone by the time the caller sees it.
type InfectedFileError struct {
	Filename string
}

func (e *InfectedFileError) Error() string {
	return fmt.Sprintf("infected file '%s' removed", e.Filename)
}

// ScanTimeoutError indicates the scan exceeded the configured timeout.
type ScanTimeoutError struct {
	Timeout time.Duration
}

func (e *ScanTimeoutError) Error() string {
	return fmt.Sprintf("scan operation timed out after %.0f seconds", e.Timeout.Seconds())
}

func IsInfected(err error) bool {
	var ie *InfectedFileError
	return As(err, &ie)
}
