// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Env holds the configuration values for the application.
type Env struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"AWS_ENDPOINT_URL"` // e.g. http://localstack:4566
	Bucket          string `env:"S3_BUCKET,required"`
	Table           string `env:"DDB_TABLE,required"`
	PresignTTLSecs  int    `env:"PRESIGN_TTL_SECONDS" envDefault:"300"`
	PublicMediaBase string `env:"PUBLIC_MEDIA_BASE_URL"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	DevBypassAuth   bool   `env:"DEV_BYPASS_AUTH"`
	CognitoClientID string `env:"COGNITO_CLIENT_ID"`

	// MediaMaxAge lets warm processes reuse the media index for a while.
	MediaMaxAge time.Duration `env:"MEDIA_MAX_AGE"`

	EmailJS EmailJS `envPrefix:"EMAILJS_"`
	Booking Booking `envPrefix:"BOOKING_"`
	Log     Log     `envPrefix:"LOG_"`
}

// EmailJS configures the transactional email relay used by the contact form.
type EmailJS struct {
	BaseURL    string `env:"BASE_URL" envDefault:"https://api.emailjs.com"`
	ServiceID  string `env:"SERVICE_ID"`
	TemplateID string `env:"TEMPLATE_ID"`
	PublicKey  string `env:"PUBLIC_KEY"`
	PrivateKey string `env:"PRIVATE_KEY"`
}

// Enabled reports whether enough of the relay is configured to send mail.
func (e EmailJS) Enabled() bool {
	return e.ServiceID != "" && e.TemplateID != "" && e.PublicKey != ""
}

// Booking configures the embedded third-party scheduling widget.
type Booking struct {
	BaseURL    string `env:"BASE_URL"`
	StaffParam string `env:"STAFF_PARAM" envDefault:"staff"`
}

// Log configures the process logger.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	File   string `env:"FILE"`
}

// PresignTTL returns the lifetime of presigned S3 URLs.
func (e Env) PresignTTL() time.Duration {
	if e.PresignTTLSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(e.PresignTTLSecs) * time.Second
}

// Load reads the environment into an Env.
func Load() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	return e, nil
}

// LoadLocal is Load for runs against in-memory stores: the bucket and table
// need not be configured and the dev auth bypass is on unless set.
func LoadLocal() (Env, error) {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		vars[k] = v
	}
	for k, v := range map[string]string{
		"S3_BUCKET":       "local",
		"DDB_TABLE":       "local",
		"DEV_BYPASS_AUTH": "true",
	} {
		if vars[k] == "" {
			vars[k] = v
		}
	}
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("load env: %w", err)
	}
	return e, nil
}

// MustLoad is Load for Lambda mains; it panics on a missing required key.
func MustLoad() Env {
	e, err := Load()
	if err != nil {
		panic(err)
	}
	return e
}
