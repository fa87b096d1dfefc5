// Package httpx provides helper functions for creating HTTP responses.
package httpx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/auth"
	"github.com/kylejryan/nail-studio-portal/internal/authz"
	"github.com/kylejryan/nail-studio-portal/internal/contact"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// Request and Response are the API Gateway HTTP API (v2) payloads.
type (
	Request  = events.APIGatewayV2HTTPRequest
	Response = events.APIGatewayV2HTTPResponse
)

// Handler serves one route.
type Handler func(ctx context.Context, req Request) (Response, error)

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (Response, error) {
	b, _ := json.Marshal(v)
	return Response{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (Response, error) {
	return JSON(status, map[string]string{"error": msg})
}

// NoContent is an empty 204.
func NoContent() (Response, error) {
	return Response{StatusCode: http.StatusNoContent}, nil
}

// Generic messages shown for failures the admin can only retry.
const (
	msgRetry    = "Something went wrong. Please try again."
	msgConflict = "This list changed in another window. Reload and try again."
	msgTransfer = "The upload didn't go through. Please try again."
)

// FromError maps a service error onto a response. Unknown errors are logged
// and answered with a generic retry message.
func FromError(log *zap.Logger, err error) (Response, error) {
	var ve *validate.Error
	var ae *auth.Error
	switch {
	case errors.As(err, &ve):
		return JSON(http.StatusBadRequest, map[string]string{"error": ve.Msg, "field": ve.Field})
	case errors.As(err, &ae):
		return Error(http.StatusUnauthorized, ae.Msg)
	case errors.Is(err, authz.ErrUnauthorized):
		return Error(http.StatusUnauthorized, "Sign in to continue.")
	case errors.Is(err, ports.ErrNotFound):
		return Error(http.StatusNotFound, "not found")
	case errors.Is(err, ports.ErrConflict):
		return Error(http.StatusConflict, msgConflict)
	case errors.Is(err, upload.ErrBusy):
		return Error(http.StatusConflict, "Still saving the last change.")
	case errors.Is(err, ports.ErrExists):
		return Error(http.StatusConflict, "already exists")
	case errors.Is(err, upload.ErrTransfer):
		log.Warn("transfer failed", zap.Error(err))
		return Error(http.StatusBadGateway, msgTransfer)
	case errors.Is(err, contact.ErrRelay):
		return Error(http.StatusBadGateway, "Couldn't send, try again.")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Error(http.StatusGatewayTimeout, msgRetry)
	}
	log.Error("request failed", zap.Error(err))
	return Error(http.StatusInternalServerError, msgRetry)
}

// Recover turns a panic in h into a 500 with recovery hints for the client.
func Recover(log *zap.Logger, h Handler) Handler {
	return func(ctx context.Context, req Request) (resp Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panic",
					zap.String("route", req.RouteKey),
					zap.Any("panic", r),
					zap.Stack("stack"))
				resp, err = JSON(http.StatusInternalServerError, map[string]any{
					"error":   "Something broke on this page.",
					"recover": []string{"reload", "home"},
				})
			}
		}()
		return h(ctx, req)
	}
}

// Body returns the raw request body, decoding base64 when API Gateway set it.
func Body(req Request) ([]byte, error) {
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, validate.New("body", "body is not valid base64")
		}
		return b, nil
	}
	return []byte(req.Body), nil
}

// Decode unmarshals a JSON body into v. An empty body leaves v untouched.
func Decode(req Request, v any) error {
	b, err := Body(req)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return validate.New("body", "invalid JSON body")
	}
	return nil
}

// Header looks up a header case-insensitively.
func Header(h map[string]string, key string) string {
	if v, ok := h[key]; ok {
		return v
	}
	ck := http.CanonicalHeaderKey(key)
	for k, v := range h {
		if http.CanonicalHeaderKey(k) == ck {
			return v
		}
	}
	return ""
}
