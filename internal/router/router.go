// Package router maps HTTP API routes onto the studio services. Routes are
// keyed the way API Gateway keys them ("GET /technicians/{id}").
package router

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/app"
	"github.com/kylejryan/nail-studio-portal/internal/authz"
	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// Route is one registered endpoint.
type Route struct {
	Key   string // "METHOD /path/{param}"
	Admin bool
	h     httpx.Handler
}

// Method returns the HTTP method of the route key.
func (r Route) Method() string {
	m, _, _ := strings.Cut(r.Key, " ")
	return m
}

// Path returns the path pattern of the route key.
func (r Route) Path() string {
	_, p, _ := strings.Cut(r.Key, " ")
	return p
}

// Router dispatches API Gateway requests.
type Router struct {
	app    *app.App
	log    *zap.Logger
	routes map[string]Route

	mu       sync.RWMutex
	lastGood map[string]any
}

// New registers every route over a.
func New(a *app.App) *Router {
	rt := &Router{
		app:      a,
		log:      a.Log.Named("router"),
		routes:   map[string]Route{},
		lastGood: map[string]any{},
	}

	rt.public("GET /site/settings", rt.getSettings)
	rt.public("GET /gallery", rt.getGallery)
	rt.public("GET /looks", rt.getLooks)
	rt.public("GET /technicians", rt.getTechnicians)
	rt.public("GET /technicians/{id}", rt.getTechnician)
	rt.public("GET /booking", rt.getBooking)
	rt.public("POST /contact", rt.postContact)
	rt.public("POST /auth/login", rt.login)
	rt.public("POST /auth/logout", rt.logout)

	rt.admin("GET /auth/session", rt.session)
	rt.admin("GET /admin/media", rt.listMedia)
	rt.admin("GET /admin/media/{id}", rt.pickMedia)
	rt.admin("POST /admin/uploads", rt.stageUpload)
	rt.admin("POST /admin/images", rt.addImage)
	rt.admin("PATCH /admin/images/{id}", rt.patchImage)
	rt.admin("DELETE /admin/images/{id}", rt.deleteImage)
	rt.admin("PUT /admin/site/hero", rt.putHero)
	rt.admin("PUT /admin/site/contact", rt.putContact)

	looks := rt.app.Looks.Editor
	rt.admin("GET /admin/looks", listEntries(rt, looks))
	rt.admin("POST /admin/looks", addEntry(rt, looks))
	rt.admin("PATCH /admin/looks/{id}", editEntry(rt, looks))
	rt.admin("DELETE /admin/looks/{id}", deleteEntry(rt, looks))
	rt.admin("POST /admin/looks/{id}/move", moveEntry(rt, looks))

	techs := rt.app.Technicians.Editor
	rt.admin("GET /admin/technicians", listEntries(rt, techs))
	rt.admin("POST /admin/technicians", addEntry(rt, techs))
	rt.admin("PATCH /admin/technicians/{id}", editEntry(rt, techs))
	rt.admin("DELETE /admin/technicians/{id}", deleteEntry(rt, techs))
	rt.admin("POST /admin/technicians/{id}/move", moveEntry(rt, techs))
	rt.admin("POST /admin/technicians/{id}/portfolio", rt.addPortfolio)
	rt.admin("DELETE /admin/technicians/{id}/portfolio", rt.removePortfolio)
	return rt
}

func (rt *Router) public(key string, h httpx.Handler) {
	rt.routes[key] = Route{Key: key, h: h}
}

func (rt *Router) admin(key string, h httpx.Handler) {
	rt.routes[key] = Route{Key: key, Admin: true, h: rt.requireSession(h)}
}

// Only returns a router serving just the given route keys, for Lambdas that
// are deployed per route. Unknown keys are ignored.
func (rt *Router) Only(keys ...string) *Router {
	out := &Router{app: rt.app, log: rt.log, routes: map[string]Route{}, lastGood: map[string]any{}}
	for _, k := range keys {
		if r, ok := rt.routes[k]; ok {
			out.routes[k] = r
		}
	}
	return out
}

// Routes lists the registered routes sorted by key.
func (rt *Router) Routes() []Route {
	out := make([]Route, 0, len(rt.routes))
	for _, r := range rt.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Handle is the Lambda entry point. Requests arriving on the $default route
// are matched by method and path.
func (rt *Router) Handle(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	return httpx.Recover(rt.log, rt.dispatch)(ctx, req)
}

func (rt *Router) dispatch(ctx context.Context, req httpx.Request) (httpx.Response, error) {
	if r, ok := rt.routes[req.RouteKey]; ok {
		return r.h(ctx, req)
	}
	method := req.RequestContext.HTTP.Method
	p := req.RawPath
	if p == "" {
		p = req.RequestContext.HTTP.Path
	}
	for _, r := range rt.Routes() {
		if r.Method() != method {
			continue
		}
		if params, ok := match(r.Path(), p); ok {
			req.RouteKey = r.Key
			req.PathParameters = params
			return r.h(ctx, req)
		}
	}
	return httpx.Error(http.StatusNotFound, "no such route")
}

// match compares a route path with {param} segments to a request path.
func match(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range ps {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if xs[i] == "" {
				return nil, false
			}
			params[seg[1:len(seg)-1]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

func (rt *Router) requireSession(h httpx.Handler) httpx.Handler {
	return func(ctx context.Context, req httpx.Request) (httpx.Response, error) {
		s, err := authz.FromAPIGWv2(req, rt.app.Env.DevBypassAuth)
		if err != nil {
			return httpx.FromError(rt.log, err)
		}
		return h(authz.WithSession(ctx, s), req)
	}
}

// failOpen serves fetch, remembering the last good value under key. When
// fetch fails it returns that value, or fallback when there is none. Not
// found and validation errors are returned as they are, and so is any error
// when fallback is nil and nothing was cached.
func (rt *Router) failOpen(key string, fallback any, fetch func() (any, error)) (any, error) {
	v, err := fetch()
	if err == nil {
		rt.mu.Lock()
		rt.lastGood[key] = v
		rt.mu.Unlock()
		return v, nil
	}
	if errors.Is(err, ports.ErrNotFound) || validate.IsValidation(err) {
		return nil, err
	}
	rt.mu.RLock()
	last, ok := rt.lastGood[key]
	rt.mu.RUnlock()
	switch {
	case ok:
		rt.log.Warn("public read failed, serving last good value", zap.String("key", key), zap.Error(err))
		return last, nil
	case fallback != nil:
		rt.log.Warn("public read failed, serving fallback", zap.String("key", key), zap.Error(err))
		return fallback, nil
	}
	return nil, err
}

// guarded runs fn under the busy guard of one form of the signed-in admin.
func (rt *Router) guarded(ctx context.Context, form string, fn func() error) error {
	s, _ := authz.FromContext(ctx)
	return rt.app.Forms.Do(s.Subject+":"+form, fn)
}

func param(req httpx.Request, name string) string {
	return req.PathParameters[name]
}

func query(req httpx.Request, name string) string {
	return strings.TrimSpace(req.QueryStringParameters[name])
}
