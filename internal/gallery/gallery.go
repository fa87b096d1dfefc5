// Package gallery manages the images collection behind the public gallery.
package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/media"
	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// PageSize is the number of images per public gallery page.
const PageSize = 24

// Page is one page of the public gallery.
type Page struct {
	Items      []models.AssetRecord `json:"items"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// Service handles gallery reads and admin edits.
type Service struct {
	Catalog  ports.Catalog
	Store    ports.BlobStore
	Pipeline *upload.Pipeline
	Library  *media.Library // refreshed after writes when set
	NewID    func() string
	Now      func() time.Time
	Log      *zap.Logger
}

// New wires a gallery service.
func New(catalog ports.Catalog, store ports.BlobStore, pipeline *upload.Pipeline, lib *media.Library, log *zap.Logger) *Service {
	return &Service{
		Catalog:  catalog,
		Store:    store,
		Pipeline: pipeline,
		Library:  lib,
		NewID:    func() string { return ulid.Make().String() },
		Now:      time.Now,
		Log:      log.Named("gallery"),
	}
}

// List returns one page of images newest first, optionally narrowed to a
// category. Filtering happens after paging so pages may come back short.
func (s *Service) List(ctx context.Context, cursor string, category models.Category) (Page, error) {
	if err := validate.FilterCategory(category); err != nil {
		return Page{}, err
	}
	var recs []models.AssetRecord
	next, err := s.Catalog.Page(ctx, models.CollectionImages, PageSize, cursor, &recs)
	if err != nil {
		return Page{}, fmt.Errorf("gallery page: %w", err)
	}
	recs = media.Apply(recs, media.Filter{Category: category})
	return Page{Items: recs, NextCursor: next}, nil
}

// Add stores one image record. Uploaded files go under gallery/ and are
// tagged source=upload; picked library images are tagged source=library.
func (s *Service) Add(ctx context.Context, category models.Category, img upload.Request) (models.AssetRecord, error) {
	category = category.OrDefault()
	if img.Prefix == "" {
		img.Prefix = s3io.PrefixGallery
		if category == models.CategoryHero {
			img.Prefix = s3io.PrefixHero
		}
	}
	if err := validate.All(
		func() error { return validate.Category(category) },
		func() error { return s.Pipeline.Validate(img) },
	); err != nil {
		return models.AssetRecord{}, err
	}

	id := s.NewID()
	var rec models.AssetRecord
	_, err := s.Pipeline.Run(ctx, img, func(ctx context.Context, ref models.ImageRef) error {
		now := models.Millis(s.Now())
		rec = models.AssetRecord{
			ID:        id,
			URL:       ref.URL,
			Path:      ref.Path,
			Category:  category,
			Name:      ref.Name,
			Size:      ref.Size,
			CreatedAt: now,
			UpdatedAt: now,
			Source:    ref.Source,
		}
		return s.Catalog.Create(ctx, models.CollectionImages, id, rec)
	})
	if err != nil {
		return models.AssetRecord{}, err
	}
	rec.Origin = models.OriginCatalog
	s.refresh(ctx)
	return rec, nil
}

// SetCategory recategorises one image.
func (s *Service) SetCategory(ctx context.Context, id string, category models.Category) error {
	if err := validate.Category(category); err != nil {
		return err
	}
	var cur models.AssetRecord
	if err := s.Catalog.Get(ctx, models.CollectionImages, id, &cur); err != nil {
		return err
	}
	err := s.Catalog.Update(ctx, models.CollectionImages, id, map[string]any{
		"category":  string(category),
		"updatedAt": models.Millis(s.Now()),
	})
	if err == nil {
		s.refresh(ctx)
	}
	return err
}

// Delete removes the record, then its blob when this record uploaded it.
func (s *Service) Delete(ctx context.Context, id string) error {
	var cur models.AssetRecord
	if err := s.Catalog.Get(ctx, models.CollectionImages, id, &cur); err != nil {
		return err
	}
	if err := s.Catalog.Delete(ctx, models.CollectionImages, id); err != nil {
		return err
	}
	if cur.Path != "" && cur.Source != models.SourceLibrary {
		if err := s.Store.Delete(ctx, cur.Path); err != nil {
			s.Log.Warn("blob delete failed", zap.String("id", id), zap.String("path", cur.Path), zap.Error(err))
		}
	}
	s.refresh(ctx)
	return nil
}

func (s *Service) refresh(ctx context.Context) {
	if s.Library == nil {
		return
	}
	if err := s.Library.Refresh(ctx); err != nil {
		s.Log.Warn("media index refresh failed", zap.Error(err))
	}
}
