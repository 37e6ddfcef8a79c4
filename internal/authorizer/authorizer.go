// Package authorizer implements the HTTP API Lambda authorizer that only
// admits requests carrying the CloudFront origin-verify secret.
package authorizer

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// HeaderName is the lower-cased origin-verify header as API Gateway delivers it.
const HeaderName = "x-origin-verify"

// canonicalHeaderName is the header as CloudFront sends it.
const canonicalHeaderName = "X-Origin-Verify"

// SecretEnvVar holds the expected secret.
const SecretEnvVar = "CLOUDFRONT_SECRET"

// Handler decides whether a request came through CloudFront.
type Handler struct {
	// Expected is the secret CloudFront sends.
	Expected string

	Logger *zap.Logger
}

// NewFromEnv returns a Handler expecting the secret in CLOUDFRONT_SECRET.
func NewFromEnv(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	expected := os.Getenv(SecretEnvVar)
	if expected == "" {
		logger.Warn("origin secret not configured; every request will be denied", zap.String("env", SecretEnvVar))
	}
	return &Handler{Expected: expected, Logger: logger}
}

// Handle evaluates a simple-response authorizer request. It never returns an
// error: any failure denies the request.
func (h *Handler) Handle(ctx context.Context, event *events.APIGatewayV2CustomAuthorizerV2Request) (resp events.APIGatewayV2CustomAuthorizerSimpleResponse, err error) {
	logger := h.logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("authorizer error", zap.Any("panic", r))
			resp = events.APIGatewayV2CustomAuthorizerSimpleResponse{IsAuthorized: false}
			err = nil
		}
	}()

	provided, lookupErr := ProvidedSecret(event)
	if lookupErr != nil {
		logger.Error("authorizer error", zap.Error(lookupErr))
		return events.APIGatewayV2CustomAuthorizerSimpleResponse{IsAuthorized: false}, nil
	}

	ok := Authorized(provided, h.Expected)
	if !ok {
		logger.Info("request denied",
			zap.String("routeArn", event.RouteArn),
			zap.String("requestId", event.RequestContext.RequestID),
			zap.Bool("headerPresent", provided != ""),
		)
	}
	return events.APIGatewayV2CustomAuthorizerSimpleResponse{IsAuthorized: ok}, nil
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// ProvidedSecret extracts the secret from the request: the first identity
// source value, else the x-origin-verify header in either casing.
func ProvidedSecret(event *events.APIGatewayV2CustomAuthorizerV2Request) (string, error) {
	if event == nil {
		return "", fmt.Errorf("nil authorizer event")
	}
	if len(event.IdentitySource) > 0 && event.IdentitySource[0] != "" {
		return event.IdentitySource[0], nil
	}
	if v := event.Headers[HeaderName]; v != "" {
		return v, nil
	}
	return event.Headers[canonicalHeaderName], nil
}

// Authorized reports whether provided matches expected. Both must be non-empty.
func Authorized(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
