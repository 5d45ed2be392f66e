package constants

const (
	StatusScanning = "scanning"
	StatusReady    = "ready"
	StatusAbsent   = "absent"
	StatusOK       = "ok"
	StatusQueued   = "queued"
	StatusPartial  = "partial"
	StatusCanceled = "canceled"
)

// UpdatedFileDirname holds files that replace existing content of a request.
const UpdatedFileDirname = "updated"

// KeyDelimiter separates the parts of an upload status key. Request ids must not contain it.
const KeyDelimiter = "_"

const (
	KeySuffixNew    = "new"
	KeySuffixUpdate = "update"
)
