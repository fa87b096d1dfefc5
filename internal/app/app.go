// Package app wires the services of the studio backend from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/auth"
	"github.com/kylejryan/nail-studio-portal/internal/awsutil"
	"github.com/kylejryan/nail-studio-portal/internal/booking"
	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/contact"
	"github.com/kylejryan/nail-studio-portal/internal/ddb"
	"github.com/kylejryan/nail-studio-portal/internal/gallery"
	"github.com/kylejryan/nail-studio-portal/internal/media"
	"github.com/kylejryan/nail-studio-portal/internal/ordered"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/ports/mocks"
	"github.com/kylejryan/nail-studio-portal/internal/relay"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/site"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
)

// Deps are the platform clients the services run on.
type Deps struct {
	Catalog ports.Catalog
	Store   ports.BlobStore
	Stager  ports.Stager // nil disables presigned uploads
	Relay   ports.Relay  // nil disables inquiry email
	Cognito auth.API     // nil disables sign-in
}

// App holds every service of one process.
type App struct {
	Env config.Env
	Log *zap.Logger
	Deps

	Library     *media.Library
	Pipeline    *upload.Pipeline
	Gallery     *gallery.Service
	Site        *site.Service
	Looks       *ordered.Looks
	Technicians *ordered.Technicians
	Contact     *contact.Service
	Auth        *auth.Service
	Booking     booking.Builder
	Forms       *upload.Forms
}

// Build wires the services over d.
func Build(env config.Env, log *zap.Logger, d Deps) *App {
	pipeline := upload.New(d.Store, env.MaxUploadBytes, log)
	lib := media.NewLibrary(
		media.CatalogSource{Catalog: d.Catalog},
		media.BlobSource{Store: d.Store, Prefixes: s3io.LibraryPrefixes, Log: log.Named("media")},
		log,
	)
	lib.MaxAge = env.MediaMaxAge
	pipeline.Changed = lib.Invalidate
	a := &App{
		Env:         env,
		Log:         log,
		Deps:        d,
		Library:     lib,
		Pipeline:    pipeline,
		Gallery:     gallery.New(d.Catalog, d.Store, pipeline, lib, log),
		Site:        site.New(d.Catalog, pipeline, log),
		Looks:       ordered.NewLooks(d.Catalog, d.Store, pipeline, log),
		Technicians: ordered.NewTechnicians(d.Catalog, d.Store, pipeline, log),
		Contact:     contact.New(d.Catalog, d.Relay, log),
		Booking:     booking.New(env.Booking),
		Forms:       &upload.Forms{},
	}
	if d.Cognito != nil {
		a.Auth = auth.New(d.Cognito, env.CognitoClientID, log)
	}
	return a
}

// NewAWS wires the services against DynamoDB, S3, Cognito and EmailJS.
func NewAWS(ctx context.Context, env config.Env, log *zap.Logger) (*App, error) {
	cfg, err := awsutil.Load(ctx, env.Region, env.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	// S3 client: use path-style when hitting LocalStack
	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if env.Endpoint != "" {
			o.UsePathStyle = true
		}
	})
	store := s3io.NewStore(s3c, env.Bucket, env.PublicMediaBase, env.PresignTTL(), log)

	d := Deps{
		Catalog: &ddb.Repo{DB: dynamodb.NewFromConfig(cfg), Table: env.Table},
		Store:   store,
		Stager:  store,
	}
	if env.CognitoClientID != "" {
		d.Cognito = cognitoidentityprovider.NewFromConfig(cfg)
	}
	if env.EmailJS.Enabled() {
		d.Relay = relay.New(env.EmailJS, log)
	} else {
		log.Warn("EmailJS not configured; inquiries are stored but not mailed")
	}
	return Build(env, log, d), nil
}

// NewMemory wires the services over in-memory stores, for local runs
// without AWS.
func NewMemory(env config.Env, log *zap.Logger) *App {
	store := mocks.NewBlobStore()
	store.BaseURL = "http://localhost/media"
	return Build(env, log, Deps{
		Catalog: mocks.NewCatalog(),
		Store:   store,
		Stager:  store,
		Relay:   &mocks.Relay{},
	})
}

// Live keeps the media index refreshed until ctx ends.
func (a *App) Live(ctx context.Context, every time.Duration) {
	a.Library.Watch(ctx, every)
}
