package wafhttpapi

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
)

// StackBuilder provides a fluent interface for building WafHttpApi stacks.
type StackBuilder struct {
	config StackConfig
}

// NewStackBuilder creates a new stack builder.
func NewStackBuilder(stackName string) *StackBuilder {
	return &StackBuilder{
		config: StackConfig{
			StackName: stackName,
			Tags:      make(map[string]string),
		},
	}
}

// WithDescription sets the stack description.
func (b *StackBuilder) WithDescription(description string) *StackBuilder {
	b.config.Description = description
	return b
}

// WithEnv pins the stack account and region.
func (b *StackBuilder) WithEnv(account, region string) *StackBuilder {
	b.config.Account = account
	b.config.Region = region
	return b
}

// WithAPI sets the HTTP API name and description.
func (b *StackBuilder) WithAPI(name, description string) *StackBuilder {
	b.config.API.Name = name
	b.config.API.Description = description
	return b
}

// WithAuthorizerCache sets the authorizer result cache TTL in seconds.
// A negative value disables caching.
func (b *StackBuilder) WithAuthorizerCache(seconds int) *StackBuilder {
	b.config.API.AuthorizerCacheSeconds = seconds
	return b
}

// WithHelloFunction configures the hello Lambda.
func (b *StackBuilder) WithHelloFunction(config FunctionConfig) *StackBuilder {
	b.config.Hello = config
	return b
}

// WithAuthorizerFunction configures the authorizer Lambda.
func (b *StackBuilder) WithAuthorizerFunction(config FunctionConfig) *StackBuilder {
	b.config.Authorizer = config
	return b
}

// WithPrebuiltFunctions uses prebuilt bootstrap binaries for both Lambdas.
func (b *StackBuilder) WithPrebuiltFunctions(helloDir, authorizerDir string) *StackBuilder {
	b.config.Hello.AssetDir = helloDir
	b.config.Authorizer.AssetDir = authorizerDir
	return b
}

// WithWAF configures the WebACL rules.
func (b *StackBuilder) WithWAF(config *WAFConfig) *StackBuilder {
	b.config.WAF = config
	return b
}

// WithRateLimit adds an IP rate-based block rule.
func (b *StackBuilder) WithRateLimit(limit int) *StackBuilder {
	if b.config.WAF == nil {
		b.config.WAF = &WAFConfig{}
	}
	b.config.WAF.RateLimit = limit
	return b
}

// WithWafRule appends a custom WebACL rule.
func (b *StackBuilder) WithWafRule(rule RuleConfig) *StackBuilder {
	if b.config.WAF == nil {
		b.config.WAF = &WAFConfig{}
	}
	b.config.WAF.Rules = append(b.config.WAF.Rules, rule)
	return b
}

// WithCustomDomain serves the distribution on a custom domain.
func (b *StackBuilder) WithCustomDomain(domainName, hostedZoneName string) *StackBuilder {
	b.config.Domain = &DomainConfig{
		DomainName:     domainName,
		HostedZoneName: hostedZoneName,
	}
	return b
}

// WithDomain configures the custom domain in full.
func (b *StackBuilder) WithDomain(config *DomainConfig) *StackBuilder {
	b.config.Domain = config
	return b
}

// WithSecretHeaderValue pins the origin-verify secret.
func (b *StackBuilder) WithSecretHeaderValue(value string) *StackBuilder {
	b.config.SecretHeaderValue = value
	return b
}

// WithLogRetention sets the Lambda log retention in days.
func (b *StackBuilder) WithLogRetention(days int) *StackBuilder {
	b.config.LogRetentionDays = days
	return b
}

// WithLogLevel sets the Lambda log level.
func (b *StackBuilder) WithLogLevel(level string) *StackBuilder {
	b.config.LogLevel = level
	return b
}

// WithTags adds tags to all resources.
func (b *StackBuilder) WithTags(tags map[string]string) *StackBuilder {
	for k, v := range tags {
		b.config.Tags[k] = v
	}
	return b
}

// WithTag adds a single tag.
func (b *StackBuilder) WithTag(key, value string) *StackBuilder {
	b.config.Tags[key] = value
	return b
}

// RetainOnDelete keeps log groups when the stack is deleted.
func (b *StackBuilder) RetainOnDelete() *StackBuilder {
	b.config.RemovalPolicy = "retain"
	return b
}

// DestroyOnDelete removes log groups when the stack is deleted.
func (b *StackBuilder) DestroyOnDelete() *StackBuilder {
	b.config.RemovalPolicy = "destroy"
	return b
}

// Config returns the current configuration.
func (b *StackBuilder) Config() StackConfig {
	return b.config
}

// Validate validates the current configuration.
func (b *StackBuilder) Validate() error {
	b.config.ApplyDefaults()
	return b.config.Validate()
}

// Build creates the stack.
func (b *StackBuilder) Build(scope constructs.Construct) *WafHttpApiStack {
	return NewWafHttpApiStack(scope, b.config.StackName, b.config)
}

// NewApp creates a new CDK app.
func NewApp() awscdk.App {
	return awscdk.NewApp(nil)
}

// Synth synthesizes the CDK app to CloudFormation templates.
func Synth(app awscdk.App) {
	app.Synth(nil)
}
