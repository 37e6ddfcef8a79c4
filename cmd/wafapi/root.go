package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/plexusone/wafhttpapi-aws-cdk/wafhttpapi"
)

type globalOptions struct {
	region     string
	configFile string
	stackName  string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "wafapi",
		Short:         "Deploy a WAF-protected HTTP API behind CloudFront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.region, "region", "", "AWS region (default: AWS_REGION or us-east-1)")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Stack config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&opts.stackName, "stack", "", "Stack name (default: from config)")
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Preview changes without applying them")

	root.AddCommand(
		newDeployCmd(opts),
		newPushSecretCmd(opts),
		newInitCmd(),
	)

	return root
}

// resolveRegion picks the flag, then the config file's region, then
// AWS_REGION, then AWS_DEFAULT_REGION, then us-east-1.
func (o *globalOptions) resolveRegion() (string, error) {
	if o.region != "" {
		return o.region, nil
	}
	if o.configFile != "" {
		cfg, err := wafhttpapi.LoadStackConfigFromFile(o.configFile)
		if err != nil {
			return "", err
		}
		if cfg.Region != "" {
			return cfg.Region, nil
		}
	}
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r, nil
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r, nil
	}
	return wafhttpapi.CloudFrontRegion, nil
}

// resolveStackName picks the flag, then the config file, then the default.
func (o *globalOptions) resolveStackName() (string, error) {
	if o.stackName != "" {
		return o.stackName, nil
	}
	if o.configFile != "" {
		cfg, err := wafhttpapi.LoadStackConfigFromFile(o.configFile)
		if err != nil {
			return "", err
		}
		if cfg.StackName != "" {
			return cfg.StackName, nil
		}
	}
	return wafhttpapi.DefaultStackName, nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
