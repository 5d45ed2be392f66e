package file

import (
	"fmt"
	"strings"

	consts "upload-finalizer/pkg/constants"
)

// MakeKey returns the status key of an upload, e.g. "FOIL-2017-001_report.pdf_new".
// The update flag is part of the key so a replacement upload never shares a key
// with a new upload of the same filename.
func MakeKey(requestID, filename string, isUpdate bool) string {
	suffix := consts.KeySuffixNew
	if isUpdate {
		suffix = consts.KeySuffixUpdate
	}
	return strings.Join([]string{requestID, filename, suffix}, consts.KeyDelimiter)
}

// ValidateRequestID rejects ids that would break the key format or escape the upload root.
func ValidateRequestID(requestID string) error {
	switch {
	case requestID == "":
		return fmt.Errorf("request id is empty")
	case strings.Contains(requestID, consts.KeyDelimiter):
		return fmt.Errorf("request id %q contains key delimiter %q", requestID, consts.KeyDelimiter)
	case strings.ContainsAny(requestID, `/\`), strings.Contains(requestID, ".."):
		return fmt.Errorf("request id %q contains a path separator", requestID)
	}
	return nil
}
