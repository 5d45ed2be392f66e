package dto

type UploadChunkRequestDTO struct {
	RequestID    string `json:"request_id" form:"request_id"`
	Filename     string `json:"filename" form:"filename"`
	IsUpdate     bool   `json:"update" form:"update"`
	ContentRange string `json:"-"`
	Checksum     string `json:"checksum" form:"checksum"`
	Size         int64  `json:"-"`
}

type UploadChunkResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Filename  string `json:"filename"`
	Key       string `json:"key"`
	Received  int64  `json:"received"`
	Total     int64  `json:"total,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

type UploadStatusRequestDTO struct {
	RequestID string `json:"request_id" query:"request_id"`
	Filename  string `json:"filename" query:"filename"`
	IsUpdate  bool   `json:"update" query:"update"`
}

type UploadStatusResponse struct {
	RequestID string `json:"request_id"`
	Filename  string `json:"filename"`
	Key       string `json:"key"`
	Status    string `json:"status"` // scanning, ready or absent
}

type CancelUploadRequestDTO struct {
	RequestID string `json:"request_id" query:"request_id"`
	Filename  string `json:"filename" query:"filename"`
	IsUpdate  bool   `json:"update" query:"update"`
}

type CancelUploadResponse struct {
	Status  string `json:"status"`
	Key     string `json:"key"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
