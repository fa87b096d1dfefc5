// Package relay sends transactional email through the EmailJS REST API.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
)

const sendPath = "/api/v1.0/email/send"

// EmailJS is a ports.Relay bound to one service and template.
type EmailJS struct {
	client *resty.Client
	cfg    config.EmailJS
	log    *zap.Logger
}

var _ ports.Relay = (*EmailJS)(nil)

type sendRequest struct {
	ServiceID   string            `json:"service_id"`
	TemplateID  string            `json:"template_id"`
	UserID      string            `json:"user_id"`
	AccessToken string            `json:"accessToken,omitempty"`
	Params      map[string]string `json:"template_params"`
}

// New returns a relay. Failed sends are not retried.
func New(cfg config.EmailJS, log *zap.Logger) *EmailJS {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &EmailJS{client: c, cfg: cfg, log: log.Named("relay")}
}

// Send posts one templated email.
func (e *EmailJS) Send(ctx context.Context, params map[string]string) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			ServiceID:   e.cfg.ServiceID,
			TemplateID:  e.cfg.TemplateID,
			UserID:      e.cfg.PublicKey,
			AccessToken: e.cfg.PrivateKey,
			Params:      params,
		}).
		Post(sendPath)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		e.log.Warn("emailjs rejected send", zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return fmt.Errorf("emailjs send: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
