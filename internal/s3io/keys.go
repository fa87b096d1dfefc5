package s3io

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/kylejryan/nail-studio-portal/internal/models"
)

// Known prefixes of the media namespace.
const (
	PrefixHero       = "assets/hero"
	PrefixGallery    = "gallery"
	PrefixSignature  = "signature"
	PrefixAvatars    = "avatars"
	PrefixPortfolios = "portfolios"
)

// PrefixCategory pairs a listed prefix with the category its blobs get in the
// media library when no catalog record describes them.
type PrefixCategory struct {
	Prefix   string
	Category models.Category
}

// LibraryPrefixes are the prefixes the media library lists.
var LibraryPrefixes = []PrefixCategory{
	{Prefix: PrefixHero, Category: models.CategoryHero},
	{Prefix: PrefixGallery, Category: models.CategoryGeneral},
	{Prefix: PrefixSignature, Category: models.CategoryGeneral},
	{Prefix: PrefixAvatars, Category: models.CategoryGeneral},
	{Prefix: PrefixPortfolios, Category: models.CategoryGeneral},
}

// UploadPrefixes are the prefixes a client may upload into.
var UploadPrefixes = []string{PrefixHero, PrefixGallery, PrefixSignature, PrefixAvatars, PrefixPortfolios}

// PortfolioPrefix is the prefix for one technician's portfolio images.
func PortfolioPrefix(techID string) string {
	return PrefixPortfolios + "/" + techID
}

// DestinationPath builds {prefix}/{unix_millis}_{filename}. Directory parts of
// filename are dropped.
func DestinationPath(prefix, filename string, at time.Time) string {
	prefix = strings.Trim(prefix, "/")
	return fmt.Sprintf("%s/%d_%s", prefix, at.UnixMilli(), path.Base(filename))
}

// KnownPrefix reports whether key lives under an upload prefix.
func KnownPrefix(key string) bool {
	for _, p := range UploadPrefixes {
		if strings.HasPrefix(key, p+"/") {
			return true
		}
	}
	return false
}

// BaseName returns the lowercased final element of key, the name the media
// library displays and searches.
func BaseName(key string) string {
	return strings.ToLower(path.Base(key))
}

// ContentTypeFor guesses an image content type from the file extension.
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
