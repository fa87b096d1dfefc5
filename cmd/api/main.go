// Package main serves the whole HTTP API from one Lambda behind the
// API Gateway $default route.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/app"
	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/logging"
	"github.com/kylejryan/nail-studio-portal/internal/router"
)

func main() {
	env := config.MustLoad()
	log := logging.Must(env.Log)
	defer func() { _ = log.Sync() }()

	a, err := app.NewAWS(context.Background(), env, log)
	if err != nil {
		log.Fatal("wire services", zap.Error(err))
	}
	lambda.Start(router.New(a).Handle)
}
