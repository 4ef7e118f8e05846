package entity

import "github.com/google/uuid"

// Upload is owned by the uploads collaborator, the image pipeline only reads it.
type Upload struct {
	ID       uuid.UUID `json:"id"`
	Path     string    `json:"path"` // site-root-relative, e.g. /uploads/2020/01/photo.jpg
	MimeType string    `json:"mime_type"`
	Width    *int      `json:"width,omitempty"`
	Height   *int      `json:"height,omitempty"`
}

func (u *Upload) WidthOrZero() int {
	if u == nil || u.Width == nil {
		return 0
	}
	return *u.Width
}
