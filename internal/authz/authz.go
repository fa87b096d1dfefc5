// Package authz resolves the admin session of a request and carries it in
// the request context.
package authz

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/kylejryan/nail-studio-portal/internal/auth"
)

// ErrUnauthorized is returned when a request carries no admin session.
var ErrUnauthorized = errors.New("unauthorized")

const devBypassHeader = "x-user-sub"

// Session is the signed-in admin. There is no role model: a session is
// either present or not.
type Session struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

type sessionKey struct{}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// headerLookup returns the value of a header key from a map.
func headerLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// BearerToken returns the token of the Authorization header, if any.
func BearerToken(headers map[string]string) string {
	h := strings.TrimSpace(headerLookup(headers, "Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// FromAPIGWv2 resolves the session of an HTTP API request. In production the
// API Gateway JWT authorizer has already verified the token and passes its
// claims. With devBypass an x-user-sub header or an unverified bearer token
// is accepted instead.
func FromAPIGWv2(req events.APIGatewayV2HTTPRequest, devBypass bool) (Session, error) {
	if devBypass {
		if sub := strings.TrimSpace(headerLookup(req.Headers, devBypassHeader)); sub != "" {
			return Session{Subject: sub}, nil
		}
	}

	if a := req.RequestContext.Authorizer; a != nil && a.JWT != nil {
		if sub := a.JWT.Claims["sub"]; sub != "" {
			return Session{Subject: sub, Email: a.JWT.Claims["email"]}, nil
		}
	}

	if devBypass {
		if sub, email := auth.Claims(BearerToken(req.Headers)); sub != "" {
			return Session{Subject: sub, Email: email}, nil
		}
	}
	return Session{}, ErrUnauthorized
}
