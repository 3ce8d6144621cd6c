// Command lambda serves the moments API behind API Gateway HTTP APIs.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/joho/godotenv"

	"github.com/okian/momentproxy/internal/bootstrap"
	"github.com/okian/momentproxy/internal/config"
	"github.com/okian/momentproxy/pkg/logger"
)

// proxyFunc is the API Gateway v2 handler signature.
type proxyFunc func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

func main() {
	_ = godotenv.Load()

	handler, err := makeHandler(context.Background())
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	lambda.Start(handler)
}

func makeHandler(ctx context.Context) (proxyFunc, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, errors.Join(errors.New("failed to load config"), err)
	}
	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat}); err != nil {
		return nil, errors.Join(errors.New("failed to initialize logging"), err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	app, err := bootstrap.Build(ctx, cfg, logger.Get())
	if err != nil {
		return nil, err
	}
	return httpadapter.NewV2(app.Handler).ProxyWithContext, nil
}
