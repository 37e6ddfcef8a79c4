// Package wafhttpapi provides AWS CDK constructs for serving an HTTP API
// through a WAF-protected CloudFront distribution.
package wafhttpapi

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2authorizers"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2integrations"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// IdentitySource is where API Gateway reads the value passed to the authorizer.
const IdentitySource = "$request.header.x-origin-verify"

// SecretEnvVar is the authorizer environment variable holding the expected secret.
const SecretEnvVar = "CLOUDFRONT_SECRET"

// WafHttpApiStack is a CDK stack with a Lambda-backed HTTP API served
// through a WAF-protected CloudFront distribution.
type WafHttpApiStack struct {
	awscdk.Stack

	// Config is the stack configuration.
	Config StackConfig

	// HelloLambda handles the API routes.
	HelloLambda awslambda.Function

	// AuthorizerLambda verifies the origin secret header.
	AuthorizerLambda awslambda.Function

	// HttpApi is the API Gateway HTTP API.
	HttpApi awsapigatewayv2.HttpApi

	// Authorizer is the Lambda authorizer attached to every route.
	Authorizer awsapigatewayv2authorizers.HttpLambdaAuthorizer

	// ProtectedApi is the WAF and CloudFront front door.
	ProtectedApi *WafHttpApi

	// LogGroups holds the function log groups keyed by construct ID.
	LogGroups map[string]awslogs.ILogGroup
}

// NewWafHttpApiStack creates a new WafHttpApiStack.
func NewWafHttpApiStack(scope constructs.Construct, id string, config StackConfig) *WafHttpApiStack {
	// Validate and apply defaults
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid stack configuration: %v", err))
	}

	props := &awscdk.StackProps{
		StackName:   jsii.String(config.StackName),
		Description: jsii.String(config.Description),
		Tags:        convertTags(config.Tags),
	}
	if config.Account != "" || config.Region != "" {
		props.Env = &awscdk.Environment{}
		if config.Account != "" {
			props.Env.Account = jsii.String(config.Account)
		}
		if config.Region != "" {
			props.Env.Region = jsii.String(config.Region)
		}
	}

	s := &WafHttpApiStack{
		Stack:     awscdk.NewStack(scope, jsii.String(id), props),
		Config:    config,
		LogGroups: make(map[string]awslogs.ILogGroup),
	}

	s.createFunctions()
	s.createHttpApi()
	s.createProtectedApi()
	s.addOutputs()

	return s
}

// createFunctions creates the hello and authorizer Lambdas.
func (s *WafHttpApiStack) createFunctions() {
	s.HelloLambda = s.newFunction("HelloLambda", s.Config.Hello)
	s.AuthorizerLambda = s.newFunction("AuthorizerLambda", s.Config.Authorizer)
}

// newFunction creates a Go Lambda from a prebuilt asset or a Go entry package.
func (s *WafHttpApiStack) newFunction(id string, config FunctionConfig) awslambda.Function {
	env := map[string]*string{
		"LOG_LEVEL": jsii.String(s.Config.LogLevel),
	}
	for k, v := range config.Environment {
		env[k] = jsii.String(v)
	}

	logGroup := s.createLogGroup(id)

	architecture := awslambda.Architecture_ARM_64()
	if config.Architecture == "x86_64" {
		architecture = awslambda.Architecture_X86_64()
	}

	if config.AssetDir != "" {
		return awslambda.NewFunction(s.Stack, jsii.String(id), &awslambda.FunctionProps{
			Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
			Handler:      jsii.String("bootstrap"),
			Code:         awslambda.Code_FromAsset(jsii.String(config.AssetDir), nil),
			Architecture: architecture,
			MemorySize:   jsii.Number(float64(config.MemoryMB)),
			Timeout:      awscdk.Duration_Seconds(jsii.Number(float64(config.TimeoutSeconds))),
			Environment:  &env,
			LogGroup:     logGroup,
		})
	}

	return awscdklambdagoalpha.NewGoFunction(s.Stack, jsii.String(id), &awscdklambdagoalpha.GoFunctionProps{
		Entry:        jsii.String(config.Entry),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: architecture,
		MemorySize:   jsii.Number(float64(config.MemoryMB)),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(float64(config.TimeoutSeconds))),
		Environment:  &env,
		LogGroup:     logGroup,
		Bundling: &awscdklambdagoalpha.BundlingOptions{
			GoBuildFlags: jsii.Strings(`-ldflags "-s -w"`, "-tags lambda.norpc"),
		},
	})
}

// createLogGroup creates the CloudWatch log group for a function.
func (s *WafHttpApiStack) createLogGroup(functionID string) awslogs.ILogGroup {
	removalPolicy := awscdk.RemovalPolicy_DESTROY
	if s.Config.RemovalPolicy == "retain" {
		removalPolicy = awscdk.RemovalPolicy_RETAIN
	}

	logGroup := awslogs.NewLogGroup(s.Stack, jsii.String(fmt.Sprintf("%sLogGroup", functionID)), &awslogs.LogGroupProps{
		Retention:     retentionDays(s.Config.LogRetentionDays),
		RemovalPolicy: removalPolicy,
	})
	s.LogGroups[functionID] = logGroup
	return logGroup
}

// retentionDays rounds a day count up to the nearest CloudWatch retention.
func retentionDays(days int) awslogs.RetentionDays {
	switch {
	case days <= 1:
		return awslogs.RetentionDays_ONE_DAY
	case days <= 7:
		return awslogs.RetentionDays_ONE_WEEK
	case days <= 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case days <= 30:
		return awslogs.RetentionDays_ONE_MONTH
	case days <= 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case days <= 180:
		return awslogs.RetentionDays_SIX_MONTHS
	case days <= 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_INFINITE
	}
}

// createHttpApi creates the HTTP API, its Lambda integration, the
// origin-header authorizer and the routes.
func (s *WafHttpApiStack) createHttpApi() {
	s.HttpApi = awsapigatewayv2.NewHttpApi(s.Stack, jsii.String("ExampleHttpApi"), &awsapigatewayv2.HttpApiProps{
		ApiName:     jsii.String(s.Config.API.Name),
		Description: jsii.String(s.Config.API.Description),
	})

	integration := awsapigatewayv2integrations.NewHttpLambdaIntegration(
		jsii.String("HelloLambdaIntegration"),
		s.HelloLambda,
		nil,
	)

	authorizerProps := &awsapigatewayv2authorizers.HttpLambdaAuthorizerProps{
		ResponseTypes: &[]awsapigatewayv2authorizers.HttpLambdaResponseType{
			awsapigatewayv2authorizers.HttpLambdaResponseType_SIMPLE,
		},
		IdentitySource: jsii.Strings(IdentitySource),
	}
	if s.Config.API.AuthorizerCacheSeconds > 0 {
		authorizerProps.ResultsCacheTtl = awscdk.Duration_Seconds(jsii.Number(float64(s.Config.API.AuthorizerCacheSeconds)))
	} else {
		authorizerProps.ResultsCacheTtl = awscdk.Duration_Seconds(jsii.Number(0))
	}

	s.Authorizer = awsapigatewayv2authorizers.NewHttpLambdaAuthorizer(
		jsii.String("OriginHeaderAuthorizer"),
		s.AuthorizerLambda,
		authorizerProps,
	)

	s.HttpApi.AddRoutes(&awsapigatewayv2.AddRoutesOptions{
		Path:        jsii.String("/"),
		Methods:     &[]awsapigatewayv2.HttpMethod{awsapigatewayv2.HttpMethod_GET},
		Integration: integration,
		Authorizer:  s.Authorizer,
	})

	s.HttpApi.AddRoutes(&awsapigatewayv2.AddRoutesOptions{
		Path:        jsii.String("/hello"),
		Methods:     &[]awsapigatewayv2.HttpMethod{awsapigatewayv2.HttpMethod_GET, awsapigatewayv2.HttpMethod_POST},
		Integration: integration,
		Authorizer:  s.Authorizer,
	})
}

// createProtectedApi puts the HTTP API behind WAF and CloudFront and hands
// the origin secret to the authorizer.
func (s *WafHttpApiStack) createProtectedApi() {
	s.ProtectedApi = NewWafHttpApi(s.Stack, "ProtectedApi", &WafHttpApiProps{
		HttpApi:           s.HttpApi,
		WAF:               s.Config.WAF,
		SecretHeaderValue: s.Config.SecretHeaderValue,
		Domain:            s.Config.Domain,
	})

	s.AuthorizerLambda.AddEnvironment(
		jsii.String(SecretEnvVar),
		jsii.String(s.ProtectedApi.SecretHeaderValue),
		nil,
	)
}

// addOutputs adds CloudFormation outputs.
func (s *WafHttpApiStack) addOutputs() {
	awscdk.NewCfnOutput(s.Stack, jsii.String("CloudFrontUrl"), &awscdk.CfnOutputProps{
		Value:       s.ProtectedApi.DistributionURL(),
		Description: jsii.String("CloudFront distribution URL (recommended endpoint)"),
	})

	awscdk.NewCfnOutput(s.Stack, jsii.String("HttpApiUrl"), &awscdk.CfnOutputProps{
		Value:       s.HttpApi.Url(),
		Description: jsii.String("Direct HTTP API URL (blocked by authorizer)"),
	})

	awscdk.NewCfnOutput(s.Stack, jsii.String("CloudFrontDistributionId"), &awscdk.CfnOutputProps{
		Value:       s.ProtectedApi.Distribution.DistributionId(),
		Description: jsii.String("CloudFront distribution ID"),
	})

	awscdk.NewCfnOutput(s.Stack, jsii.String("SecretHeaderName"), &awscdk.CfnOutputProps{
		Value:       jsii.String(SecretHeaderName),
		Description: jsii.String("Name of the secret header added by CloudFront"),
	})

	awscdk.NewCfnOutput(s.Stack, jsii.String("SecretHeaderValue"), &awscdk.CfnOutputProps{
		Value:       jsii.String(s.ProtectedApi.SecretHeaderValue),
		Description: jsii.String("Value of the secret header (for origin verification)"),
	})

	awscdk.NewCfnOutput(s.Stack, jsii.String("WebAclArn"), &awscdk.CfnOutputProps{
		Value:       s.ProtectedApi.WebAcl.AttrArn(),
		Description: jsii.String("WAF WebACL ARN"),
	})

	if s.ProtectedApi.CustomDomain != "" {
		awscdk.NewCfnOutput(s.Stack, jsii.String("CustomDomainUrl"), &awscdk.CfnOutputProps{
			Value:       jsii.String(fmt.Sprintf("https://%s", s.ProtectedApi.CustomDomain)),
			Description: jsii.String("Custom domain URL"),
		})
	}
}

// convertTags converts a map to CDK tags.
func convertTags(tags map[string]string) *map[string]*string {
	if len(tags) == 0 {
		return nil
	}
	result := make(map[string]*string)
	for k, v := range tags {
		result[k] = jsii.String(v)
	}
	return &result
}
