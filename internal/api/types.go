// Package api contains types for the API requests and responses.
package api

import "github.com/kylejryan/nail-studio-portal/internal/models"

// UploadTicketRequest asks for a presigned URL the browser PUTs an image to.
type UploadTicketRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Prefix      string `json:"prefix"` // one of the upload prefixes, e.g. "gallery"
}

// UploadTicketResponse represents the response payload containing the presigned S3 upload URL and related info.
type UploadTicketResponse struct {
	Key           string            `json:"key"`
	PresignedURL  string            `json:"presigned_url"`
	ExpiresIn     int               `json:"expires_in"`
	ContentType   string            `json:"content_type"`
	UploadHeaders map[string]string `json:"upload_headers"`
}

// ImageSource names where the image of a submission comes from when it is
// sent as JSON. A multipart "file" part takes the place of both fields.
type ImageSource struct {
	Picked    string `json:"picked,omitempty"` // media library id
	Staged    string `json:"staged,omitempty"` // key PUT through an upload ticket
	DeleteOld bool   `json:"deleteOld,omitempty"`
}

// HasImage reports whether any source was named.
func (s ImageSource) HasImage() bool { return s.Picked != "" || s.Staged != "" }

// ImageCreate adds a gallery image.
type ImageCreate struct {
	ImageSource
	Category models.Category `json:"category"`
}

// ImagePatch recategorises a gallery image.
type ImagePatch struct {
	Category models.Category `json:"category"`
}

// HeroRequest saves the hero section.
type HeroRequest struct {
	ImageSource
	Headline string `json:"heroHeadline"`
	Sub      string `json:"heroSub"`
}

// ContactInfoRequest saves the studio's contact details.
type ContactInfoRequest struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Instagram   string `json:"instagram"`
	ServiceArea string `json:"serviceArea"`
	ByApptOnly  bool   `json:"byApptOnly"`
}

// EntryRequest creates or edits a look or a technician. Fields holds the
// text fields of the collection; unknown ones are ignored.
type EntryRequest struct {
	ImageSource
	Fields  map[string]any `json:"fields"`
	Enabled *bool          `json:"enabled,omitempty"`
}

// MoveRequest moves an entry one step.
type MoveRequest struct {
	Direction string `json:"direction"` // "up" or "down"
}

// PortfolioRemoveRequest removes one portfolio image by path or url.
type PortfolioRemoveRequest struct {
	Ref        string `json:"ref"`
	DeleteBlob bool   `json:"deleteBlob"`
}

// LoginRequest is an email/password sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest ends the session of the given access token.
type LogoutRequest struct {
	AccessToken string `json:"accessToken"`
}

// MediaResponse is one view of the media library.
type MediaResponse struct {
	Items         []models.AssetRecord `json:"items"`
	Version       uint64               `json:"version"`
	CatalogLoaded bool                 `json:"catalogLoaded"`
	BlobsLoaded   bool                 `json:"blobsLoaded"`
}

// OK is the body of a write with nothing else to report.
type OK struct {
	OK bool `json:"ok"`
}
