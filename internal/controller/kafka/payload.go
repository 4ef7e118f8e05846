package kafka

// UploadDeletedPayload is published by the blog backend after an upload row is removed.
type UploadDeletedPayload struct {
	Path string `json:"path"`
}
