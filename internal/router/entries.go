package router

import (
	"context"
	"net/http"

	"github.com/kylejryan/nail-studio-portal/internal/api"
	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/ordered"
)

// Handlers shared by the ranked collections. Each collection's forms have
// their own busy guards, keyed by collection and entry id.

func listEntries[T ordered.Entry](rt *Router, e *ordered.Editor[T]) httpx.Handler {
	return func(ctx context.Context, _ httpx.Request) (httpx.Response, error) {
		items, err := e.List(ctx)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		if items == nil {
			items = []T{}
		}
		return httpx.JSON(http.StatusOK, items)
	}
}

func addEntry[T ordered.Entry](rt *Router, e *ordered.Editor[T]) httpx.Handler {
	return func(ctx context.Context, req httpx.Request) (httpx.Response, error) {
		var body api.EntryRequest
		file, err := rt.decode(req, &body)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		img, _, err := rt.image(ctx, body.ImageSource, file)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		var out T
		err = rt.guarded(ctx, e.Kind.Collection+":new", func() error {
			if out, err = e.Add(ctx, body.Fields, img); err != nil {
				return err
			}
			if body.Enabled != nil && !*body.Enabled {
				if err = e.SetEnabled(ctx, out.EntryID(), false); err != nil {
					return err
				}
				out, err = e.Get(ctx, out.EntryID())
			}
			return err
		})
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		return httpx.JSON(http.StatusCreated, out)
	}
}

func editEntry[T ordered.Entry](rt *Router, e *ordered.Editor[T]) httpx.Handler {
	return func(ctx context.Context, req httpx.Request) (httpx.Response, error) {
		id := param(req, "id")
		var body api.EntryRequest
		file, err := rt.decode(req, &body)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		img, has, err := rt.image(ctx, body.ImageSource, file)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		var out T
		err = rt.guarded(ctx, e.Kind.Collection+":"+id, func() error {
			if len(body.Fields) > 0 || has {
				if _, err := e.Edit(ctx, id, body.Fields, imagePtr(img, has), body.DeleteOld); err != nil {
					return err
				}
			}
			if body.Enabled != nil {
				if err := e.SetEnabled(ctx, id, *body.Enabled); err != nil {
					return err
				}
			}
			out, err = e.Get(ctx, id)
			return err
		})
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		return httpx.JSON(http.StatusOK, out)
	}
}

func deleteEntry[T ordered.Entry](rt *Router, e *ordered.Editor[T]) httpx.Handler {
	return func(ctx context.Context, req httpx.Request) (httpx.Response, error) {
		id := param(req, "id")
		err := rt.guarded(ctx, e.Kind.Collection+":"+id, func() error {
			return e.Delete(ctx, id)
		})
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		return httpx.NoContent()
	}
}

// moveEntry moves one entry a step and answers with the new order.
func moveEntry[T ordered.Entry](rt *Router, e *ordered.Editor[T]) httpx.Handler {
	return func(ctx context.Context, req httpx.Request) (httpx.Response, error) {
		var body api.MoveRequest
		if err := httpx.Decode(req, &body); err != nil {
			return httpx.FromError(rt.log, err)
		}
		err := rt.guarded(ctx, e.Kind.Collection+":order", func() error {
			return e.Move(ctx, param(req, "id"), ordered.Direction(body.Direction))
		})
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		return listEntries(rt, e)(ctx, req)
	}
}
