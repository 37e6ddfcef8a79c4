// wafapi deploys the WAF-protected HTTP API stack and manages its
// CloudFront origin-verify secret.
//
// Usage:
//
//	wafapi deploy [flags]
//	wafapi push-secret [flags]
//	wafapi init [config-file]
//
// Examples:
//
//	wafapi deploy                           # Reuse the stored secret and deploy
//	wafapi deploy --rotate-secret           # Rotate the origin secret, then deploy
//	wafapi deploy --config config.yaml      # Deploy with a config file
//	wafapi deploy --dry-run                 # Show cdk diff without changing anything
//	wafapi push-secret --rotate             # Rotate the secret only
//	wafapi init config.yaml                 # Write an example config
//
// Install:
//
//	go install github.com/plexusone/wafhttpapi-aws-cdk/cmd/wafapi@latest
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
