package router

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/api"
	"github.com/kylejryan/nail-studio-portal/internal/authz"
	"github.com/kylejryan/nail-studio-portal/internal/contact"
	"github.com/kylejryan/nail-studio-portal/internal/gallery"
	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/models"
)

func (rt *Router) getSettings(ctx context.Context, _ httpx.Request) (httpx.Response, error) {
	return httpx.JSON(http.StatusOK, rt.app.Site.Public(ctx))
}

func (rt *Router) getGallery(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	cursor, cat := query(req, "cursor"), models.Category(query(req, "category"))
	v, err := rt.failOpen("gallery?"+cursor+"&"+string(cat), gallery.Page{Items: []models.AssetRecord{}}, func() (any, error) {
		return rt.app.Gallery.List(ctx, cursor, cat)
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, v)
}

func (rt *Router) getLooks(ctx context.Context, _ httpx.Request) (httpx.Response, error) {
	v, err := rt.failOpen("looks", []models.SignatureLook{}, func() (any, error) {
		return rt.app.Looks.Public(ctx)
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, v)
}

func (rt *Router) getTechnicians(ctx context.Context, _ httpx.Request) (httpx.Response, error) {
	v, err := rt.failOpen("technicians", []models.Technician{}, func() (any, error) {
		return rt.app.Technicians.Public(ctx)
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, v)
}

func (rt *Router) getTechnician(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	id := param(req, "id")
	v, err := rt.failOpen("technicians/"+id, nil, func() (any, error) {
		return rt.app.Technicians.GetPublic(ctx, id)
	})
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, v)
}

// getBooking returns the widget URL, preselecting the technician given by
// ?tech= when they are listed and have a staff id.
func (rt *Router) getBooking(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	id := query(req, "tech")
	if id == "" {
		return httpx.JSON(http.StatusOK, rt.app.Booking.For(""))
	}
	t, err := rt.app.Technicians.GetPublic(ctx, id)
	if err != nil {
		rt.log.Info("booking without technician", zap.String("tech", id), zap.Error(err))
		return httpx.JSON(http.StatusOK, rt.app.Booking.For(""))
	}
	return httpx.JSON(http.StatusOK, rt.app.Booking.For(t.SquareStaffID))
}

func (rt *Router) postContact(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	var f contact.Form
	if err := httpx.Decode(req, &f); err != nil {
		return httpx.FromError(rt.log, err)
	}
	_, err := rt.app.Contact.Submit(ctx, f)
	if errors.Is(err, contact.ErrSuspectedBot) {
		return httpx.JSON(http.StatusOK, api.OK{OK: true})
	}
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, api.OK{OK: true})
}

func (rt *Router) login(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	if rt.app.Auth == nil {
		return httpx.Error(http.StatusServiceUnavailable, "sign-in is not configured")
	}
	var body api.LoginRequest
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	tok, err := rt.app.Auth.SignIn(ctx, body.Email, body.Password)
	if err != nil {
		return httpx.FromError(rt.log, err)
	}
	return httpx.JSON(http.StatusOK, tok)
}

// logout always succeeds for the client; a failed revoke is only logged.
func (rt *Router) logout(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	if rt.app.Auth == nil {
		return httpx.NoContent()
	}
	var body api.LogoutRequest
	if err := httpx.Decode(req, &body); err != nil {
		return httpx.FromError(rt.log, err)
	}
	if body.AccessToken == "" {
		body.AccessToken = authz.BearerToken(req.Headers)
	}
	if body.AccessToken == "" {
		return httpx.NoContent()
	}
	if err := rt.app.Auth.SignOut(ctx, body.AccessToken); err != nil {
		rt.log.Warn("sign out failed", zap.Error(err))
	}
	return httpx.NoContent()
}

func (rt *Router) session(ctx context.Context, _ httpx.Request) (httpx.Response, error) {
	s, _ := authz.FromContext(ctx)
	return httpx.JSON(http.StatusOK, s)
}
