// Package originsecret keeps the CloudFront origin-verify secret in AWS
// Secrets Manager so deploys can reuse or rotate it.
package originsecret

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/google/uuid"
)

// Action describes what Ensure did.
type Action string

const (
	ActionUnchanged Action = "unchanged"
	ActionCreated   Action = "created"
	ActionRotated   Action = "rotated"
)

// SecretsAPI is the subset of the Secrets Manager client used by Store.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// SecretName returns the Secrets Manager name used for a stack.
func SecretName(stackName string) string {
	return fmt.Sprintf("%s/origin-verify", stackName)
}

// Store reads and writes one origin-verify secret.
type Store struct {
	Client SecretsAPI
	Name   string

	// DryRun reads but never writes.
	DryRun bool

	// Generate returns a new secret value. Defaults to a random UUID.
	Generate func() string
}

// NewStore returns a Store for the stack's secret.
func NewStore(client SecretsAPI, stackName string) *Store {
	return &Store{Client: client, Name: SecretName(stackName)}
}

// Result is the outcome of Ensure.
type Result struct {
	Value  string
	Action Action
}

// Ensure returns the stored secret, creating it when missing. With rotate a
// new value replaces the stored one.
func (s *Store) Ensure(ctx context.Context, rotate bool) (Result, error) {
	current, err := s.Get(ctx)
	var notFound *types.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		value := s.generate()
		if !s.DryRun {
			if err := s.create(ctx, value); err != nil {
				return Result{}, err
			}
		}
		return Result{Value: value, Action: ActionCreated}, nil
	case err != nil:
		return Result{}, err
	}

	if !rotate && current != "" {
		return Result{Value: current, Action: ActionUnchanged}, nil
	}

	value := s.generate()
	if !s.DryRun {
		if err := s.Put(ctx, value); err != nil {
			return Result{}, err
		}
	}
	return Result{Value: value, Action: ActionRotated}, nil
}

// Get returns the current secret value.
func (s *Store) Get(ctx context.Context) (string, error) {
	out, err := s.Client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.Name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", err
		}
		return "", fmt.Errorf("reading secret %s: %w", s.Name, err)
	}
	return aws.ToString(out.SecretString), nil
}

// Put stores value as the new secret version.
func (s *Store) Put(ctx context.Context, value string) error {
	_, err := s.Client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.Name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("updating secret %s: %w", s.Name, err)
	}
	return nil
}

func (s *Store) create(ctx context.Context, value string) error {
	_, err := s.Client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(s.Name),
		Description:  aws.String("CloudFront origin-verify header value"),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("creating secret %s: %w", s.Name, err)
	}
	return nil
}

func (s *Store) generate() string {
	if s.Generate != nil {
		return s.Generate()
	}
	return uuid.NewString()
}

// Mask shows the first characters of a secret for display.
func Mask(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:8] + "***"
}
