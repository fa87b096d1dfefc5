package ordered

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// LooksKind is the signature looks collection.
var LooksKind = Kind{
	Collection: models.CollectionSignatureLooks,
	Prefix:     s3io.PrefixSignature,
	Label:      "title",
	Fields:     []string{"title", "desc"},
	ImageFields: func(ref models.ImageRef) map[string]any {
		m := map[string]any{
			"imgUrl": ref.URL,
			"path":   ref.Path,
			"name":   ref.Name,
			"source": string(ref.Source),
		}
		if ref.Size != nil {
			m["size"] = *ref.Size
		}
		return m
	},
}

// TechniciansKind is the technician roster.
var TechniciansKind = Kind{
	Collection: models.CollectionTechnicians,
	Prefix:     s3io.PrefixAvatars,
	Label:      "name",
	Fields:     []string{"name", "role", "bio", "squareStaffId", "socials"},
	ImageFields: func(ref models.ImageRef) map[string]any {
		m := map[string]any{
			"avatarUrl":    ref.URL,
			"avatarPath":   ref.Path,
			"avatarName":   ref.Name,
			"avatarSource": string(ref.Source),
		}
		if ref.Size != nil {
			m["avatarSize"] = *ref.Size
		}
		return m
	},
}

// Looks edits the signature looks.
type Looks struct {
	*Editor[models.SignatureLook]
}

// NewLooks wires the signature looks editor.
func NewLooks(catalog ports.Catalog, store ports.BlobStore, pipeline *upload.Pipeline, log *zap.Logger) *Looks {
	return &Looks{NewEditor[models.SignatureLook](LooksKind, catalog, store, pipeline, log)}
}

// Technicians edits the roster and each technician's portfolio.
type Technicians struct {
	*Editor[models.Technician]
}

// NewTechnicians wires the roster editor.
func NewTechnicians(catalog ports.Catalog, store ports.BlobStore, pipeline *upload.Pipeline, log *zap.Logger) *Technicians {
	return &Technicians{NewEditor[models.Technician](TechniciansKind, catalog, store, pipeline, log)}
}

// AddPortfolio appends an image to the technician's portfolio. Uploads go
// under portfolios/{id}/.
func (t *Technicians) AddPortfolio(ctx context.Context, id string, img upload.Request) (models.Technician, error) {
	img.Prefix = s3io.PortfolioPrefix(id)
	if err := t.Pipeline.Validate(img); err != nil {
		return models.Technician{}, err
	}
	tech, err := t.Get(ctx, id)
	if err != nil {
		return models.Technician{}, err
	}
	_, err = t.Pipeline.Run(ctx, img, func(ctx context.Context, ref models.ImageRef) error {
		gallery := append(append([]models.PortfolioImage(nil), tech.Gallery...),
			models.PortfolioImage{URL: ref.URL, Path: ref.Path, Source: ref.Source})
		return t.Catalog.Update(ctx, t.Kind.Collection, id, map[string]any{
			"gallery":   gallery,
			"updatedAt": t.Now().UnixMilli(),
		})
	})
	if err != nil {
		return models.Technician{}, err
	}
	return t.Get(ctx, id)
}

// RemovePortfolio drops the portfolio image whose path or url is ref. With
// deleteBlob an uploaded image's blob is removed afterwards, best effort.
func (t *Technicians) RemovePortfolio(ctx context.Context, id, ref string, deleteBlob bool) (models.Technician, error) {
	if err := validate.Required("image", ref); err != nil {
		return models.Technician{}, err
	}
	tech, err := t.Get(ctx, id)
	if err != nil {
		return models.Technician{}, err
	}

	var (
		kept    []models.PortfolioImage
		removed *models.PortfolioImage
	)
	for i, g := range tech.Gallery {
		if removed == nil && (g.Path == ref || g.URL == ref) {
			removed = &tech.Gallery[i]
			continue
		}
		kept = append(kept, g)
	}
	if removed == nil {
		return models.Technician{}, fmt.Errorf("portfolio image %s: %w", ref, ports.ErrNotFound)
	}
	if kept == nil {
		kept = []models.PortfolioImage{}
	}

	if err := t.Catalog.Update(ctx, t.Kind.Collection, id, map[string]any{
		"gallery":   kept,
		"updatedAt": t.Now().UnixMilli(),
	}); err != nil {
		return models.Technician{}, err
	}
	if deleteBlob && removed.Source == models.SourceUpload && removed.Path != "" {
		if err := t.Store.Delete(ctx, removed.Path); err != nil {
			t.Log.Warn("blob delete failed", zap.String("id", id), zap.String("path", removed.Path), zap.Error(err))
		}
	}
	return t.Get(ctx, id)
}
