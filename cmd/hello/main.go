// hello is the Lambda serving the HTTP API routes.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/plexusone/wafhttpapi-aws-cdk/internal/hello"
	"github.com/plexusone/wafhttpapi-aws-cdk/internal/logging"
)

func main() {
	logger := logging.New("hello")
	defer func() { _ = logger.Sync() }()

	lambda.Start(hello.New(logger).Handle)
}
