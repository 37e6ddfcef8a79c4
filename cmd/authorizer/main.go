// authorizer is the HTTP API Lambda authorizer admitting only requests that
// carry the CloudFront origin-verify secret.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/plexusone/wafhttpapi-aws-cdk/internal/authorizer"
	"github.com/plexusone/wafhttpapi-aws-cdk/internal/logging"
)

func main() {
	logger := logging.New("authorizer")
	defer func() { _ = logger.Sync() }()

	lambda.Start(authorizer.NewFromEnv(logger).Handle)
}
