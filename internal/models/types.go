// Package models defines the data models used in the application.
package models

import "time"

// Catalog collections. Each one is a DynamoDB partition (PK).
const (
	CollectionImages          = "images"
	CollectionSignatureLooks  = "signatureLooks"
	CollectionTechnicians     = "technicians"
	CollectionSite            = "site"
	CollectionContactMessages = "contactMessages"

	// SiteSettingsID is the id of the singleton document in CollectionSite.
	SiteSettingsID = "settings"
)

// Category tags an asset for filtering in the media library and gallery.
type Category string

// Possible values for Category
const (
	CategoryAll     Category = "all" // filter passthrough, never stored
	CategoryGeneral Category = "general"
	CategoryHero    Category = "hero"
	CategoryNails   Category = "nails"
	CategoryDesigns Category = "designs"
)

// Categories lists the storable categories in display order.
var Categories = []Category{CategoryGeneral, CategoryHero, CategoryNails, CategoryDesigns}

// OrDefault returns c, or general when c is empty.
func (c Category) OrDefault() Category {
	if c == "" {
		return CategoryGeneral
	}
	return c
}

// Source records how an image reached a document.
type Source string

// Possible values for Source
const (
	SourceUpload  Source = "upload"  // bytes were transferred for this document
	SourceLibrary Source = "library" // reused from the media library
)

// Origin says which side of the reconciliation produced an AssetRecord.
type Origin string

// Possible values for Origin
const (
	OriginCatalog Origin = "catalog"
	OriginBlob    Origin = "blob"
)

// AssetRecord is one reusable media item.
type AssetRecord struct {
	ID        string   `json:"id" dynamodbav:"id"`
	URL       string   `json:"url,omitempty" dynamodbav:"url,omitempty"`
	Path      string   `json:"path,omitempty" dynamodbav:"path,omitempty"` // S3 key; dedupe key
	Category  Category `json:"category" dynamodbav:"category"`
	Name      string   `json:"name" dynamodbav:"name"` // lowercased
	Size      *int64   `json:"size,omitempty" dynamodbav:"size,omitempty"`
	CreatedAt int64    `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"` // unix millis, 0 = unknown
	UpdatedAt int64    `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
	Source    Source   `json:"source,omitempty" dynamodbav:"source,omitempty"`

	Origin Origin `json:"origin,omitempty" dynamodbav:"-"`
}

// Key is the reconciliation key: path, or url for legacy records without one.
func (a AssetRecord) Key() string {
	if a.Path != "" {
		return a.Path
	}
	return a.URL
}

// Ref converts the record into an image reference for reuse elsewhere.
func (a AssetRecord) Ref() ImageRef {
	return ImageRef{URL: a.URL, Path: a.Path, Name: a.Name, Size: a.Size, Source: SourceLibrary}
}

// ImageRef is the resolved image a document points at.
type ImageRef struct {
	URL    string `json:"url"`
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
	Size   *int64 `json:"size,omitempty"`
	Source Source `json:"source"`
}

// SignatureLook is a curated card on the home page.
type SignatureLook struct {
	ID        string  `json:"id" dynamodbav:"id"`
	Title     string  `json:"title" dynamodbav:"title"`
	Desc      string  `json:"desc" dynamodbav:"desc"`
	ImgURL    string  `json:"imgUrl" dynamodbav:"imgUrl"`
	Path      string  `json:"path,omitempty" dynamodbav:"path,omitempty"`
	Name      string  `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Size      *int64  `json:"size,omitempty" dynamodbav:"size,omitempty"`
	Source    Source  `json:"source,omitempty" dynamodbav:"source,omitempty"`
	Order     float64 `json:"order" dynamodbav:"order"`
	Enabled   *bool   `json:"enabled,omitempty" dynamodbav:"enabled,omitempty"`
	CreatedAt int64   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt int64   `json:"updatedAt" dynamodbav:"updatedAt"`
}

// PortfolioImage is one image in a technician's portfolio.
type PortfolioImage struct {
	URL    string `json:"url" dynamodbav:"url"`
	Path   string `json:"path,omitempty" dynamodbav:"path,omitempty"`
	Source Source `json:"source,omitempty" dynamodbav:"source,omitempty"`
}

// Technician is a member of the studio roster.
type Technician struct {
	ID            string            `json:"id" dynamodbav:"id"`
	Name          string            `json:"name" dynamodbav:"name"`
	Role          string            `json:"role,omitempty" dynamodbav:"role,omitempty"`
	Bio           string            `json:"bio" dynamodbav:"bio"`
	AvatarURL     string            `json:"avatarUrl" dynamodbav:"avatarUrl"`
	AvatarPath    string            `json:"avatarPath,omitempty" dynamodbav:"avatarPath,omitempty"`
	AvatarName    string            `json:"avatarName,omitempty" dynamodbav:"avatarName,omitempty"`
	AvatarSize    *int64            `json:"avatarSize,omitempty" dynamodbav:"avatarSize,omitempty"`
	AvatarSource  Source            `json:"avatarSource,omitempty" dynamodbav:"avatarSource,omitempty"`
	SquareStaffID string            `json:"squareStaffId,omitempty" dynamodbav:"squareStaffId,omitempty"`
	Socials       map[string]string `json:"socials,omitempty" dynamodbav:"socials,omitempty"`
	Gallery       []PortfolioImage  `json:"gallery,omitempty" dynamodbav:"gallery,omitempty"`
	Order         float64           `json:"order" dynamodbav:"order"`
	Enabled       *bool             `json:"enabled,omitempty" dynamodbav:"enabled,omitempty"`
	CreatedAt     int64             `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt     int64             `json:"updatedAt" dynamodbav:"updatedAt"`
}

// SiteSettings is the singleton site/settings document.
type SiteSettings struct {
	HeroImage     string `json:"heroImage,omitempty" dynamodbav:"heroImage,omitempty"`
	HeroImagePath string `json:"heroImagePath,omitempty" dynamodbav:"heroImagePath,omitempty"`
	HeroHeadline  string `json:"heroHeadline,omitempty" dynamodbav:"heroHeadline,omitempty"`
	HeroSub       string `json:"heroSub,omitempty" dynamodbav:"heroSub,omitempty"`
	Phone         string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Email         string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Instagram     string `json:"instagram,omitempty" dynamodbav:"instagram,omitempty"`
	ServiceArea   string `json:"serviceArea,omitempty" dynamodbav:"serviceArea,omitempty"`
	City          string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	ByApptOnly    *bool  `json:"byApptOnly,omitempty" dynamodbav:"byApptOnly,omitempty"`
	UpdatedAt     int64  `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

// ContactMessage is a stored website inquiry.
type ContactMessage struct {
	ID        string `json:"id" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone     string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Message   string `json:"message" dynamodbav:"message"`
	Tech      string `json:"tech,omitempty" dynamodbav:"tech,omitempty"`
	Source    string `json:"source" dynamodbav:"source"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"createdAt"`
}

// Millis converts t to unix milliseconds, the timestamp unit stored in the catalog.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 { return &n }

// Ordered collection accessors.

func (l SignatureLook) EntryID() string   { return l.ID }
func (l SignatureLook) Rank() float64     { return l.Order }
func (l SignatureLook) Created() int64    { return l.CreatedAt }
func (l SignatureLook) Visible() bool     { return l.Enabled == nil || *l.Enabled }
func (l SignatureLook) ImagePath() string { return l.Path }

// OwnedBlobs returns the paths this look uploaded itself.
func (l SignatureLook) OwnedBlobs() []string {
	if l.Source == SourceUpload && l.Path != "" {
		return []string{l.Path}
	}
	return nil
}

func (t Technician) EntryID() string   { return t.ID }
func (t Technician) Rank() float64     { return t.Order }
func (t Technician) Created() int64    { return t.CreatedAt }
func (t Technician) Visible() bool     { return t.Enabled == nil || *t.Enabled }
func (t Technician) ImagePath() string { return t.AvatarPath }

// OwnedBlobs returns the uploaded avatar and portfolio paths.
func (t Technician) OwnedBlobs() []string {
	var out []string
	if t.AvatarSource == SourceUpload && t.AvatarPath != "" {
		out = append(out, t.AvatarPath)
	}
	for _, g := range t.Gallery {
		if g.Source == SourceUpload && g.Path != "" {
			out = append(out, g.Path)
		}
	}
	return out
}
