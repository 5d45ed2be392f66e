package repositories

import "context"

// StorageStrategy is the durable destination of scanned files.
type StorageStrategy interface {
	// Relocate moves src to the destination of (requestID, filename, isUpdate),
	// overwriting whatever is there, and returns the final location.
	Relocate(ctx context.Context, src, requestID, filename string, isUpdate bool) (string, error)
	// Checksum returns the sha256 of the stored file. ok is false when nothing is stored.
	Checksum(ctx context.Context, requestID, filename string, isUpdate bool) (sum string, ok bool, err error)
}
