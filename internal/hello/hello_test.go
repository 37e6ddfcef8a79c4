package hello

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := New(zap.New(core))
	h.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6000, time.FixedZone("X", 3600)) }

	event := events.APIGatewayV2HTTPRequest{
		RouteKey: "GET /hello",
		RawPath:  "/hello",
		Headers: map[string]string{
			"user-agent":      "curl/8.5.0",
			"x-origin-verify": "super-secret",
		},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "req-123",
			HTTP:      events.APIGatewayV2HTTPRequestContextHTTPDescription{SourceIP: "203.0.113.7"},
		},
	}

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.Equal(t, "GET, POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	require.Equal(t, "Content-Type, Authorization", resp.Headers["Access-Control-Allow-Headers"])

	var body Body
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, Body{
		Message:   Message,
		Timestamp: "2026-01-02T02:04:05.000006Z",
		RequestID: aws.String("req-123"),
		SourceIP:  aws.String("203.0.113.7"),
		UserAgent: aws.String("curl/8.5.0"),
	}, body)

	entries := logs.FilterMessage("event").All()
	require.Len(t, entries, 1)
	headers, ok := entries[0].ContextMap()["headers"].(map[string]string)
	require.True(t, ok)
	require.Equal(t, "[REDACTED]", headers["x-origin-verify"])
}

func TestHandleEmptyEvent(t *testing.T) {
	h := New(nil)

	resp, err := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, Message, body["message"])
	for _, key := range []string{"requestId", "sourceIp", "userAgent"} {
		value, ok := body[key]
		require.True(t, ok, key)
		require.Nil(t, value, key)
	}
}
