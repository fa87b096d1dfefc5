// Package contact validates, stores and forwards website inquiries.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

var (
	// ErrRelay means the inquiry was stored but the email could not be sent.
	ErrRelay = errors.New("couldn't send, try again")
	// ErrSuspectedBot marks a submission that filled the hidden honeypot field.
	// Callers answer it like a success so automated senders learn nothing.
	ErrSuspectedBot = errors.New("honeypot field filled")
)

// Form is a submitted contact form.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Tech    string `json:"tech"`
	// Company is hidden from people; anything in it means automation.
	Company string `json:"company"`
}

// Validate runs the form checks in display order. The honeypot is checked
// last so a bot filling everything still sees ordinary validation first.
func (f Form) Validate() error {
	return validate.All(
		func() error { return validate.Required("name", f.Name) },
		func() error {
			if strings.TrimSpace(f.Email) == "" && strings.TrimSpace(f.Phone) == "" {
				return validate.New("email", "Add an email or phone.")
			}
			return nil
		},
		func() error {
			if e := strings.TrimSpace(f.Email); e != "" {
				return validate.Email(e)
			}
			return nil
		},
		func() error { return validate.MinLen("message", f.Message, 5, "Add a short message.") },
		func() error {
			if strings.TrimSpace(f.Company) != "" {
				return ErrSuspectedBot
			}
			return nil
		},
	)
}

// Service handles contact submissions.
type Service struct {
	Catalog ports.Catalog
	Relay   ports.Relay // nil disables email
	Policy  *bluemonday.Policy
	NewID   func() string
	Now     func() time.Time
	Log     *zap.Logger
}

// New wires a contact service.
func New(catalog ports.Catalog, relay ports.Relay, log *zap.Logger) *Service {
	return &Service{
		Catalog: catalog,
		Relay:   relay,
		Policy:  bluemonday.StrictPolicy(),
		NewID:   func() string { return ulid.Make().String() },
		Now:     time.Now,
		Log:     log.Named("contact"),
	}
}

// Submit stores the inquiry, then relays it by email. The stored message
// survives a relay failure, reported as ErrRelay.
func (s *Service) Submit(ctx context.Context, f Form) (models.ContactMessage, error) {
	if err := f.Validate(); err != nil {
		if errors.Is(err, ErrSuspectedBot) {
			s.Log.Info("honeypot submission dropped")
		}
		return models.ContactMessage{}, err
	}

	now := s.Now()
	msg := models.ContactMessage{
		ID:        s.NewID(),
		Name:      s.clean(f.Name),
		Email:     s.clean(f.Email),
		Phone:     s.clean(f.Phone),
		Message:   s.clean(f.Message),
		Tech:      s.clean(f.Tech),
		Source:    "website",
		CreatedAt: models.Millis(now),
	}
	if err := s.Catalog.Create(ctx, models.CollectionContactMessages, msg.ID, msg); err != nil {
		return models.ContactMessage{}, fmt.Errorf("store inquiry: %w", err)
	}

	if s.Relay == nil {
		return msg, nil
	}
	if err := s.Relay.Send(ctx, Params(msg, now)); err != nil {
		s.Log.Warn("relay failed, inquiry kept", zap.String("id", msg.ID), zap.Error(err))
		return msg, fmt.Errorf("%w: %w", ErrRelay, err)
	}
	return msg, nil
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.Policy.Sanitize(strings.TrimSpace(v)))
}

// Params are the template fields of the inquiry email.
func Params(m models.ContactMessage, at time.Time) map[string]string {
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return map[string]string{
		"title":   "Website Contact",
		"name":    m.Name,
		"email":   or(m.Email, "no-email@site"),
		"phone":   or(m.Phone, "n/a"),
		"message": m.Message,
		"tech":    or(m.Tech, "No preference"),
		"time":    at.Format(time.RFC1123),
	}
}
