// app is the CDK entry point for the WAF-protected HTTP API stack.
//
// Synthesize or deploy from the repository root:
//
//	cdk synth
//	cdk deploy -c config=config.yaml
//	cdk deploy -c secretHeaderValue=$(uuidgen)
package main

import (
	"fmt"
	"os"

	"github.com/aws/jsii-runtime-go"

	"github.com/plexusone/wafhttpapi-aws-cdk/wafhttpapi"
)

func main() {
	defer jsii.Close()

	app := wafhttpapi.NewApp()

	config, err := wafhttpapi.StackConfigFromContext(app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	wafhttpapi.NewWafHttpApiStack(app, config.StackName, config)

	wafhttpapi.Synth(app)
}
