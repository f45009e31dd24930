// Command completion-handler is the Lambda entrypoint for the completion
// function. It is built as the "bootstrap" binary of a provided.al2023
// function and served behind API Gateway.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/openai-stack-go/internal/completion"
	"github.com/lex00/openai-stack-go/internal/credentials"
	"github.com/lex00/openai-stack-go/internal/logging"
	"github.com/lex00/openai-stack-go/internal/observability"
)

// version can be set via ldflags: -ldflags "-X main.version=v1.0.0"
var version = "dev"

const flushTimeout = 2 * time.Second

func main() {
	logger := logging.InitWith(logging.Options{Format: envOr("LOG_FORMAT", "json")})
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    envOr("OTEL_SERVICE_NAME", "openai-completion"),
		ServiceVersion: version,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		logger.Error("tracing disabled", "error", err)
		tp, _ = observability.InitTracing(ctx, nil)
	}

	key, source, err := credentials.NewResolver().Resolve(ctx)
	if err != nil {
		logger.Error("resolving openai credential", "error", err)
		os.Exit(1)
	}
	if source == credentials.SourceNone {
		logger.Warn("no openai credential configured; requests will be rejected by the provider",
			"env", credentials.APIKeyEnv, "parameter_env", credentials.APIKeyParameterEnv)
	} else {
		logger.Info("openai credential resolved", "source", source)
	}

	h := completion.New(completion.Config{APIKey: key, Logger: logger})

	lambda.StartWithOptions(
		func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			defer flush(tp, logger)
			return h.Handle(ctx, req)
		},
		lambda.WithEnableSIGTERM(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown", "error", err)
			}
		}),
	)
}

func flush(tp *observability.TracerProvider, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := tp.ForceFlush(ctx); err != nil {
		logger.Warn("flushing spans", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
