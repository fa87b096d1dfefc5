// Package site serves and edits the site/settings singleton.
package site

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// Defaults is what the public site shows before anything was saved or when
// the catalog cannot be read.
func Defaults() models.SiteSettings {
	return models.SiteSettings{
		HeroHeadline: "Blessed N Polished",
		HeroSub:      "How we do",
		Email:        "blessednpolished@gmail.com",
		Instagram:    "reinakatrina84",
		ServiceArea:  "Buckeye, AZ • Sundance",
		ByApptOnly:   models.BoolPtr(true),
	}
}

// withDefaults fills every empty field of s from Defaults.
func withDefaults(s models.SiteSettings) models.SiteSettings {
	d := Defaults()
	if s.HeroHeadline == "" {
		s.HeroHeadline = d.HeroHeadline
	}
	if s.HeroSub == "" {
		s.HeroSub = d.HeroSub
	}
	if s.Email == "" {
		s.Email = d.Email
	}
	if s.Instagram == "" {
		s.Instagram = d.Instagram
	}
	if s.ServiceArea == "" {
		s.ServiceArea = d.ServiceArea
		if s.City != "" {
			s.ServiceArea = s.City
		}
	}
	if s.ByApptOnly == nil {
		s.ByApptOnly = d.ByApptOnly
	}
	return s
}

// Service reads and writes site settings.
type Service struct {
	Catalog  ports.Catalog
	Pipeline *upload.Pipeline
	Now      func() time.Time
	Log      *zap.Logger

	mu   sync.RWMutex
	last *models.SiteSettings
}

// New wires a settings service.
func New(catalog ports.Catalog, pipeline *upload.Pipeline, log *zap.Logger) *Service {
	return &Service{Catalog: catalog, Pipeline: pipeline, Now: time.Now, Log: log.Named("site")}
}

// Public never fails: a read error falls back to the last good value, then
// to Defaults.
func (s *Service) Public(ctx context.Context) models.SiteSettings {
	cur, err := s.load(ctx)
	if err == nil {
		return withDefaults(cur)
	}
	s.Log.Warn("settings read failed, serving fallback", zap.Error(err))
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last != nil {
		return withDefaults(*s.last)
	}
	return Defaults()
}

// Get returns the stored document without defaults. A missing document is
// the zero value.
func (s *Service) Get(ctx context.Context) (models.SiteSettings, error) {
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (models.SiteSettings, error) {
	var cur models.SiteSettings
	err := s.Catalog.Get(ctx, models.CollectionSite, models.SiteSettingsID, &cur)
	if errors.Is(err, ports.ErrNotFound) {
		return models.SiteSettings{}, nil
	}
	if err != nil {
		return models.SiteSettings{}, err
	}
	s.mu.Lock()
	s.last = &cur
	s.mu.Unlock()
	return cur, nil
}

// Hero is the hero editor form.
type Hero struct {
	Headline string
	Sub      string
	Image    *upload.Request // nil keeps the current image
	// DeleteOld removes the previous hero blob once the new one is saved.
	DeleteOld bool
}

// SaveHero merges the hero fields, uploading a new image under assets/hero/
// when one is given.
func (s *Service) SaveHero(ctx context.Context, h Hero) (models.SiteSettings, error) {
	fields := map[string]any{
		"heroHeadline": strings.TrimSpace(h.Headline),
		"heroSub":      strings.TrimSpace(h.Sub),
		"updatedAt":    models.Millis(s.Now()),
	}
	if h.Image == nil {
		if err := s.write(ctx, fields); err != nil {
			return models.SiteSettings{}, err
		}
		return s.load(ctx)
	}

	req := *h.Image
	req.Prefix = s3io.PrefixHero
	if err := s.Pipeline.Validate(req); err != nil {
		return models.SiteSettings{}, err
	}
	cur, err := s.load(ctx)
	if err != nil {
		return models.SiteSettings{}, err
	}
	req.Replaces = cur.HeroImagePath
	req.DeleteOld = h.DeleteOld

	_, err = s.Pipeline.Run(ctx, req, func(ctx context.Context, ref models.ImageRef) error {
		fields["heroImage"] = ref.URL
		fields["heroImagePath"] = ref.Path
		return s.write(ctx, fields)
	})
	if err != nil {
		return models.SiteSettings{}, err
	}
	return s.load(ctx)
}

// Contact is the contact info form.
type Contact struct {
	Phone       string
	Email       string
	Instagram   string
	ServiceArea string
	ByApptOnly  bool
}

// SaveContact merges the contact fields.
func (s *Service) SaveContact(ctx context.Context, c Contact) (models.SiteSettings, error) {
	email := strings.TrimSpace(c.Email)
	if email != "" {
		if err := validate.Email(email); err != nil {
			return models.SiteSettings{}, err
		}
	}
	fields := map[string]any{
		"phone":       strings.TrimSpace(c.Phone),
		"email":       email,
		"instagram":   strings.TrimPrefix(strings.TrimSpace(c.Instagram), "@"),
		"serviceArea": strings.TrimSpace(c.ServiceArea),
		"byApptOnly":  c.ByApptOnly,
		"updatedAt":   models.Millis(s.Now()),
	}
	if err := s.write(ctx, fields); err != nil {
		return models.SiteSettings{}, err
	}
	return s.load(ctx)
}

func (s *Service) write(ctx context.Context, fields map[string]any) error {
	return s.Catalog.Update(ctx, models.CollectionSite, models.SiteSettingsID, fields)
}
