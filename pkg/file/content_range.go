package file

import (
	"strconv"
	"strings"

	fe "upload-finalizer/pkg/errors"
)

// ParseContentRange extracts the first byte position and the instance length
// from a Content-Range value of the form "bytes <start>-<end>/<total>".
func ParseContentRange(header string) (start int64, total int64, err error) {
	unit, rest, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || unit != "bytes" {
		return 0, 0, &fe.MalformedHeaderError{Header: header, Reason: "missing bytes unit"}
	}

	rng, length, ok := strings.Cut(strings.TrimSpace(rest), "/")
	if !ok {
		return 0, 0, &fe.MalformedHeaderError{Header: header, Reason: "missing instance length"}
	}

	first, _, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, 0, &fe.MalformedHeaderError{Header: header, Reason: "missing byte range"}
	}

	start, err = parseNonNegative(first)
	if err != nil {
		return 0, 0, &fe.MalformedHeaderError{Header: header, Reason: "invalid first byte position"}
	}
	total, err = parseNonNegative(length)
	if err != nil {
		return 0, 0, &fe.MalformedHeaderError{Header: header, Reason: "invalid instance length"}
	}
	return start, total, nil
}

func parseNonNegative(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
