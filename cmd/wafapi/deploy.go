package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/plexusone/wafhttpapi-aws-cdk/wafhttpapi"
)

type deployOptions struct {
	rotateSecret  bool
	skipSecret    bool
	skipBootstrap bool
}

func newDeployCmd(opts *globalOptions) *cobra.Command {
	dopts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Prepare the origin secret, bootstrap CDK and deploy the stack",
		Long: `Deploy runs three steps:
  1. Ensure (or rotate) the origin-verify secret in AWS Secrets Manager
  2. Bootstrap AWS CDK (if needed)
  3. Deploy the CDK stack with the secret pinned via context`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), opts, dopts)
		},
	}

	cmd.Flags().BoolVar(&dopts.rotateSecret, "rotate-secret", false, "Rotate the origin-verify secret before deploying")
	cmd.Flags().BoolVar(&dopts.skipSecret, "skip-secret", false, "Let CDK generate a fresh secret instead of using Secrets Manager")
	cmd.Flags().BoolVar(&dopts.skipBootstrap, "skip-bootstrap", false, "Skip CDK bootstrap")
	return cmd
}

func runDeploy(ctx context.Context, opts *globalOptions, dopts *deployOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	awsRegion, err := opts.resolveRegion()
	if err != nil {
		return err
	}
	if awsRegion != wafhttpapi.CloudFrontRegion {
		return fmt.Errorf("region %s: CLOUDFRONT-scoped WAF must be deployed to %s (use --region %s)",
			awsRegion, wafhttpapi.CloudFrontRegion, wafhttpapi.CloudFrontRegion)
	}
	stackName, err := opts.resolveStackName()
	if err != nil {
		return err
	}

	fmt.Println("=== WAF HTTP API Deployment ===")
	fmt.Println()
	fmt.Printf("Region: %s\n", awsRegion)
	fmt.Printf("Stack: %s\n", stackName)
	fmt.Printf("Working directory: %s\n", mustGetwd())
	if opts.dryRun {
		fmt.Println("Mode: DRY RUN (no changes will be made)")
	}
	fmt.Println()

	cfg, err := loadAWSConfig(ctx, awsRegion)
	if err != nil {
		return err
	}

	accountID, err := callerAccount(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("AWS Account: %s\n", accountID)
	fmt.Println()

	// Step 1: Origin secret
	var secret string
	if !dopts.skipSecret {
		fmt.Println("=== Step 1: Origin Secret ===")
		secret, err = ensureSecret(ctx, cfg, stackName, dopts.rotateSecret, opts.dryRun)
		if err != nil {
			return err
		}
		fmt.Println()
	} else {
		fmt.Println("=== Step 1: Skipping origin secret (--skip-secret) ===")
		fmt.Println()
	}

	// Step 2: Bootstrap CDK
	if !dopts.skipBootstrap {
		fmt.Println("=== Step 2: Bootstrap CDK ===")
		bootstrapCDK(ctx, accountID, awsRegion, opts.dryRun)
		fmt.Println()
	} else {
		fmt.Println("=== Step 2: Skipping bootstrap (--skip-bootstrap) ===")
		fmt.Println()
	}

	// Step 3: Deploy
	fmt.Println("=== Step 3: Deploy ===")
	if err := deployCDK(ctx, cdkArgs(opts.dryRun, opts.configFile, secret)); err != nil {
		return fmt.Errorf("deploying: %w", err)
	}
	fmt.Println()

	fmt.Println("=== Deployment Complete ===")
	if !opts.dryRun {
		fmt.Println()
		fmt.Println("To get outputs:")
		fmt.Printf("  aws cloudformation describe-stacks --stack-name %s --region %s --query 'Stacks[0].Outputs' --no-cli-pager\n", stackName, awsRegion)
	}

	return nil
}

func callerAccount(ctx context.Context, cfg aws.Config) (string, error) {
	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting AWS identity: %w", err)
	}
	return aws.ToString(identity.Account), nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// cdkArgs builds the cdk command line: diff on dry runs, deploy otherwise,
// with the config file and origin secret passed as context.
func cdkArgs(dryRun bool, configFile, secret string) []string {
	var args []string
	if dryRun {
		args = []string{"diff"}
	} else {
		args = []string{"deploy", "--require-approval", "never"}
	}
	if configFile != "" {
		args = append(args, "-c", fmt.Sprintf("%s=%s", wafhttpapi.ContextConfigPath, configFile))
	}
	if secret != "" {
		args = append(args, "-c", fmt.Sprintf("%s=%s", wafhttpapi.ContextSecretHeaderValue, secret))
	}
	return args
}

// bootstrapCDK runs cdk bootstrap
func bootstrapCDK(ctx context.Context, accountID, region string, dryRun bool) {
	target := fmt.Sprintf("aws://%s/%s", accountID, region)
	fmt.Printf("Bootstrap target: %s\n", target)

	if dryRun {
		fmt.Println("[DRY RUN] Would run: cdk bootstrap " + target)
		return
	}

	//nolint:gosec // G204: target is built from AWS SDK values (accountID, region), not user input
	cmd := exec.CommandContext(ctx, "cdk", "bootstrap", target)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Bootstrap fails when the environment is already bootstrapped
		fmt.Println("  Bootstrap completed (or already bootstrapped)")
	}
}

// deployCDK runs cdk with the given arguments
func deployCDK(ctx context.Context, args []string) error {
	fmt.Printf("Running cdk %s...\n", args[0])

	//nolint:gosec // G204: arguments are built by cdkArgs
	cmd := exec.CommandContext(ctx, "cdk", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if args[0] == "diff" {
		_ = cmd.Run() // diff exits non-zero when there are differences
		return nil
	}
	return cmd.Run()
}
