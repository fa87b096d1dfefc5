package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kylejryan/nail-studio-portal/internal/api"
	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/media"
	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/site"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

func (rt *Router) listMedia(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	f := media.Filter{Search: query(req, "q"), Category: models.Category(query(req, "category"))}
	if err := validate.FilterCategory(f.Category); err != nil {
		return httpx.FromError(rt.log, err)
	}
	v, err := rt.app.Library.Search(ctx, f)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	items := v.Records
	if items == nil {
		items = []models.AssetRecord{}
	}
	return httpx.JSON(http.StatusOK, api.MediaResponse{
		Items:         items,
		Version:       v.Version,
		CatalogLoaded: v.CatalogLoaded,
		BlobsLoaded:   v.BlobsLoaded,
	})
}

func (rt *Router) pickMedia(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	rec, err := rt.app.Library.Pick(ctx, param(req, "id"))
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, rec)
}

// stageUpload hands out a presigned PUT. The object is only referenced once
// a later submission names it as staged and the pipeline confirms it landed.
func (rt *Router) stageUpload(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	if rt.app.Stager == nil {
		return httpx.Error(http.StatusNotImplemented, "direct uploads are not configured")
	}
	var body api.UploadTicketRequest
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	body.Prefix = strings.Trim(body.Prefix, "/")
	if body.ContentType == "" {
		body.ContentType = s3io.ContentTypeFor(body.Filename)
	}
	if err := validate.All(
		func() error { return validate.ImageFilename(body.Filename) },
		func() error { return validate.ContentTypeImage(body.ContentType) },
		func() error { return validate.Prefix(body.Prefix+"/", s3io.UploadPrefixes) },
	); err != nil {
		return httpx.FromError(rt.log, err)
	}

	key := s3io.DestinationPath(body.Prefix, body.Filename, time.Now())
	st, err := rt.app.Stager.Stage(ctx, key, body.ContentType)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, api.UploadTicketResponse{
		Key:           st.Key,
		PresignedURL:  st.URL,
		ExpiresIn:     int(st.ExpiresIn.Seconds()),
		ContentType:   body.ContentType,
		UploadHeaders: st.Headers,
	})
}

func (rt *Router) addImage(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var body api.ImageCreate
	file, err := rt.decode(req, &body)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	img, _, err := rt.image(ctx, body.ImageSource, file)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	var rec models.AssetRecord
	err = rt.guarded(ctx, "images:new", func() (err error) {
		rec, err = rt.app.Gallery.Add(ctx, body.Category, img)
		return err
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusCreated, rec)
}

func (rt *Router) patchImage(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var body api.ImagePatch
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	if err := rt.app.Gallery.SetCategory(ctx, param(req, "id"), body.Category); err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, api.OK{OK: true})
}

func (rt *Router) deleteImage(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	if err := rt.app.Gallery.Delete(ctx, param(req, "id")); err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.NoContent()
}

func (rt *Router) putHero(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var body api.HeroRequest
	file, err := rt.decode(req, &body)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	img, has, err := rt.image(ctx, body.ImageSource, file)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	h := site.Hero{Headline: body.Headline, Sub: body.Sub, Image: imagePtr(img, has), DeleteOld: body.DeleteOld}
	var out models.SiteSettings
	err = rt.guarded(ctx, "hero", func() (err error) {
		out, err = rt.app.Site.SaveHero(ctx, h)
		return err
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, out)
}

func (rt *Router) putContact(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var body api.ContactInfoRequest
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	var out models.SiteSettings
	err := rt.guarded(ctx, "contact", func() (err error) {
		out, err = rt.app.Site.SaveContact(ctx, site.Contact{
			Phone:       body.Phone,
			Email:       body.Email,
			Instagram:   body.Instagram,
			ServiceArea: body.ServiceArea,
			ByApptOnly:  body.ByApptOnly,
		})
		return err
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, out)
}

func (rt *Router) addPortfolio(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	id := param(req, "id")
	var body api.ImageSource
	file, err := rt.decode(req, &body)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	img, _, err := rt.image(ctx, body, file)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	var out models.Technician
	err = rt.guarded(ctx, "portfolio:"+id, func() (err error) {
		out, err = rt.app.Technicians.AddPortfolio(ctx, id, img)
		return err
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, out)
}

func (rt *Router) removePortfolio(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var body api.PortfolioRemoveRequest
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	out, err := rt.app.Technicians.RemovePortfolio(ctx, param(req, "id"), body.Ref, body.DeleteBlob)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, out)
}

// imagePtr returns &img when the submission named an image.
func imagePtr(img upload.Request, has bool) *upload.Request {
	if !has {
		return nil
	}
	return &img
}
