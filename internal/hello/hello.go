// Package hello implements the greeting Lambda behind the HTTP API.
package hello

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Message is the greeting returned on every route.
const Message = "Hello from waf-http-api Go CDK construct!!"

// Body is the JSON response body. Request fields absent from the event
// are null.
type Body struct {
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	RequestID *string `json:"requestId"`
	SourceIP  *string `json:"sourceIp"`
	UserAgent *string `json:"userAgent"`
}

// Handler serves the greeting.
type Handler struct {
	Logger *zap.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

// New returns a Handler logging to logger.
func New(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Logger: logger, Now: time.Now}
}

// Handle answers an HTTP API payload v2 request.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	h.Logger.Info("event",
		zap.String("routeKey", event.RouteKey),
		zap.String("rawPath", event.RawPath),
		zap.String("requestId", event.RequestContext.RequestID),
		zap.String("sourceIp", event.RequestContext.HTTP.SourceIP),
		zap.Any("headers", redactHeaders(event.Headers)),
	)

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	body := Body{
		Message:   Message,
		Timestamp: now().UTC().Format("2006-01-02T15:04:05.000000Z"),
		RequestID: optional(event.RequestContext.RequestID),
		SourceIP:  optional(event.RequestContext.HTTP.SourceIP),
		UserAgent: optional(event.Headers["user-agent"]),
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, fmt.Errorf("marshaling body: %w", err)
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, Authorization",
		},
		Body: string(data),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// redactHeaders drops the origin secret from logged headers.
func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if k == "x-origin-verify" || k == "X-Origin-Verify" || k == "authorization" {
			v = "[REDACTED]"
		}
		out[k] = v
	}
	return out
}
