// Package main prunes image records when their objects leave the bucket.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/app"
	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/indexer"
	"github.com/kylejryan/nail-studio-portal/internal/logging"
)

// main initializes the app and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	log := logging.Must(env.Log)
	defer func() { _ = log.Sync() }()

	a, err := app.NewAWS(context.Background(), env, log)
	if err != nil {
		log.Fatal("wire services", zap.Error(err))
	}
	lambda.Start(indexer.New(a.Catalog, a.Store, log).Handle)
}
