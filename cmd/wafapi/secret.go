package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/cobra"

	"github.com/plexusone/wafhttpapi-aws-cdk/internal/originsecret"
)

func newPushSecretCmd(opts *globalOptions) *cobra.Command {
	var rotate bool

	cmd := &cobra.Command{
		Use:   "push-secret",
		Short: "Create, or rotate, the origin-verify secret in Secrets Manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stackName, err := opts.resolveStackName()
			if err != nil {
				return err
			}
			awsRegion, err := opts.resolveRegion()
			if err != nil {
				return err
			}

			fmt.Printf("AWS Region: %s\n", awsRegion)
			fmt.Printf("Stack: %s\n", stackName)
			if opts.dryRun {
				fmt.Println("Mode: DRY RUN (no changes will be made)")
			}
			fmt.Println()

			cfg, err := loadAWSConfig(ctx, awsRegion)
			if err != nil {
				return err
			}

			if _, err := ensureSecret(ctx, cfg, stackName, rotate, opts.dryRun); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println("Done!")
			fmt.Println()
			fmt.Printf("To verify:\n")
			fmt.Printf("  aws secretsmanager describe-secret --region %s --secret-id %s --no-cli-pager\n", awsRegion, originsecret.SecretName(stackName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rotate, "rotate", false, "Replace the stored value with a new one")
	return cmd
}

// ensureSecret reuses, creates or rotates the stack's origin secret and
// reports what happened.
func ensureSecret(ctx context.Context, cfg aws.Config, stackName string, rotate, dryRun bool) (string, error) {
	store := originsecret.NewStore(secretsmanager.NewFromConfig(cfg), stackName)
	store.DryRun = dryRun

	res, err := store.Ensure(ctx, rotate)
	if err != nil {
		return "", fmt.Errorf("origin secret: %w", err)
	}

	prefix := ""
	if dryRun && res.Action != originsecret.ActionUnchanged {
		prefix = "[DRY RUN] Would be "
	}
	fmt.Printf("  %s: %s%s (%s)\n", store.Name, prefix, res.Action, originsecret.Mask(res.Value))
	return res.Value, nil
}
