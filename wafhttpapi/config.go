package wafhttpapi

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults applied by StackConfig.ApplyDefaults.
const (
	DefaultStackName              = "WafHttpApiExampleStack"
	DefaultStackDescription       = "Go CDK stack demonstrating a WAF-protected HTTP API behind CloudFront"
	DefaultAPIName                = "waf-http-api-go-example"
	DefaultAPIDescription         = "Example HTTP API protected by WAF and CloudFront"
	DefaultHelloEntry             = "cmd/hello"
	DefaultAuthorizerEntry        = "cmd/authorizer"
	DefaultMemoryMB               = 128
	DefaultTimeoutSeconds         = 10
	DefaultArchitecture           = "arm64"
	DefaultLogRetentionDays       = 30
	DefaultAuthorizerCacheSeconds = 300

	// CloudFrontRegion is the only region that can hold CLOUDFRONT-scoped
	// WebACLs and CloudFront viewer certificates.
	CloudFrontRegion = "us-east-1"

	// MinSecretHeaderLength is the shortest pinned secret header value accepted.
	MinSecretHeaderLength = 16
)

// StackConfig is the full configuration of a WafHttpApiStack.
type StackConfig struct {
	// StackName is the CloudFormation stack name.
	StackName string `json:"stackName" yaml:"stackName"`

	// Description is the CloudFormation stack description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Account and Region pin the stack environment. Region must be us-east-1 when set.
	Account string `json:"account,omitempty" yaml:"account,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`

	// Tags are applied to every taggable resource in the stack.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	API        APIConfig      `json:"api" yaml:"api"`
	Hello      FunctionConfig `json:"hello" yaml:"hello"`
	Authorizer FunctionConfig `json:"authorizer" yaml:"authorizer"`

	// WAF customizes the WebACL rules. Nil means the managed defaults only.
	WAF *WAFConfig `json:"waf,omitempty" yaml:"waf,omitempty"`

	// Domain enables a custom domain on the CloudFront distribution.
	Domain *DomainConfig `json:"domain,omitempty" yaml:"domain,omitempty"`

	// SecretHeaderValue pins the origin-verify secret. Empty generates a new
	// value on every synthesis.
	SecretHeaderValue string `json:"secretHeaderValue,omitempty" yaml:"secretHeaderValue,omitempty"`

	// LogRetentionDays is the retention of the Lambda log groups.
	LogRetentionDays int `json:"logRetentionDays,omitempty" yaml:"logRetentionDays,omitempty"`

	// LogLevel is passed to the Lambdas as LOG_LEVEL.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// RemovalPolicy is "destroy" (default) or "retain".
	RemovalPolicy string `json:"removalPolicy,omitempty" yaml:"removalPolicy,omitempty"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// AuthorizerCacheSeconds is how long API Gateway caches authorizer results
	// per identity. Zero applies the default; negative disables caching.
	AuthorizerCacheSeconds int `json:"authorizerCacheSeconds,omitempty" yaml:"authorizerCacheSeconds,omitempty"`
}

// FunctionConfig configures one Go Lambda function.
//
// Exactly one code source is used: AssetDir (a directory holding a prebuilt
// bootstrap binary) wins over Entry (a Go package bundled at synth time).
type FunctionConfig struct {
	Entry          string            `json:"entry,omitempty" yaml:"entry,omitempty"`
	AssetDir       string            `json:"assetDir,omitempty" yaml:"assetDir,omitempty"`
	MemoryMB       int               `json:"memoryMB,omitempty" yaml:"memoryMB,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	Architecture   string            `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	Environment    map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// WAFConfig configures the WebACL rules.
type WAFConfig struct {
	// ManagedRules replaces the default AWS managed rule groups when non-empty.
	ManagedRules []ManagedRuleConfig `json:"managedRules,omitempty" yaml:"managedRules,omitempty"`

	// DisableManagedRules drops the managed rule groups entirely.
	DisableManagedRules bool `json:"disableManagedRules,omitempty" yaml:"disableManagedRules,omitempty"`

	// RateLimit adds an IP rate-based block rule when positive
	// (requests per 5 minute window).
	RateLimit int `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`

	// Rules are custom rules appended after the managed and rate-limit rules.
	Rules []RuleConfig `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ManagedRuleConfig references a WAF managed rule group.
type ManagedRuleConfig struct {
	VendorName    string   `json:"vendorName,omitempty" yaml:"vendorName,omitempty"`
	Name          string   `json:"name" yaml:"name"`
	ExcludedRules []string `json:"excludedRules,omitempty" yaml:"excludedRules,omitempty"`
}

// RuleConfig is a custom WebACL rule. Statement uses the CloudFormation
// statement shape with camelCase keys, e.g. {"geoMatchStatement": {...}}.
// Every key, nested ones included, is rendered with its first letter
// upper-cased, so PascalCase keys work too.
type RuleConfig struct {
	Name      string                 `json:"name" yaml:"name"`
	Priority  int                    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Action    string                 `json:"action,omitempty" yaml:"action,omitempty"`
	Statement map[string]interface{} `json:"statement" yaml:"statement"`
}

// DomainConfig attaches a custom domain to the CloudFront distribution.
type DomainConfig struct {
	DomainName     string `json:"domainName" yaml:"domainName"`
	HostedZoneName string `json:"hostedZoneName" yaml:"hostedZoneName"`

	// HostedZoneID avoids a context lookup of the hosted zone.
	HostedZoneID string `json:"hostedZoneId,omitempty" yaml:"hostedZoneId,omitempty"`

	// CertificateARN imports an existing us-east-1 certificate instead of
	// issuing a DNS-validated one.
	CertificateARN string `json:"certificateArn,omitempty" yaml:"certificateArn,omitempty"`
}

// DefaultManagedRules are the AWS managed rule groups every WebACL starts with.
func DefaultManagedRules() []ManagedRuleConfig {
	return []ManagedRuleConfig{
		{VendorName: "AWS", Name: "AWSManagedRulesAmazonIpReputationList"},
		{VendorName: "AWS", Name: "AWSManagedRulesCommonRuleSet"},
	}
}

// DefaultStackConfig returns a configuration with every default applied.
func DefaultStackConfig() StackConfig {
	config := StackConfig{}
	config.ApplyDefaults()
	return config
}

// ApplyDefaults fills unset fields with their defaults.
func (c *StackConfig) ApplyDefaults() {
	if c.StackName == "" {
		c.StackName = DefaultStackName
	}
	if c.Description == "" {
		c.Description = DefaultStackDescription
	}
	if c.API.Name == "" {
		c.API.Name = DefaultAPIName
	}
	if c.API.Description == "" {
		c.API.Description = DefaultAPIDescription
	}
	if c.API.AuthorizerCacheSeconds == 0 {
		c.API.AuthorizerCacheSeconds = DefaultAuthorizerCacheSeconds
	}
	c.Hello.applyDefaults(DefaultHelloEntry)
	c.Authorizer.applyDefaults(DefaultAuthorizerEntry)
	if c.LogRetentionDays == 0 {
		c.LogRetentionDays = DefaultLogRetentionDays
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RemovalPolicy == "" {
		c.RemovalPolicy = "destroy"
	}
	if c.Tags == nil {
		c.Tags = make(map[string]string)
	}
	if c.WAF != nil {
		for i := range c.WAF.ManagedRules {
			if c.WAF.ManagedRules[i].VendorName == "" {
				c.WAF.ManagedRules[i].VendorName = "AWS"
			}
		}
		for i := range c.WAF.Rules {
			if c.WAF.Rules[i].Action == "" {
				c.WAF.Rules[i].Action = "block"
			}
		}
	}
}

func (f *FunctionConfig) applyDefaults(entry string) {
	if f.Entry == "" && f.AssetDir == "" {
		f.Entry = entry
	}
	if f.MemoryMB == 0 {
		f.MemoryMB = DefaultMemoryMB
	}
	if f.TimeoutSeconds == 0 {
		f.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if f.Architecture == "" {
		f.Architecture = DefaultArchitecture
	}
}

// Validate reports every problem found in the configuration.
func (c *StackConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.StackName) == "" {
		errs = append(errs, errors.New("stackName is required"))
	}
	if c.Region != "" && c.Region != CloudFrontRegion {
		errs = append(errs, fmt.Errorf("region must be %s for CLOUDFRONT-scoped WAF, got %q", CloudFrontRegion, c.Region))
	}
	if c.RemovalPolicy != "" && c.RemovalPolicy != "destroy" && c.RemovalPolicy != "retain" {
		errs = append(errs, fmt.Errorf("removalPolicy must be destroy or retain, got %q", c.RemovalPolicy))
	}
	if c.LogRetentionDays < 0 {
		errs = append(errs, errors.New("logRetentionDays must not be negative"))
	}
	if c.SecretHeaderValue != "" && len(c.SecretHeaderValue) < MinSecretHeaderLength {
		errs = append(errs, fmt.Errorf("secretHeaderValue must be at least %d characters", MinSecretHeaderLength))
	}
	if err := c.Hello.validate("hello"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Authorizer.validate("authorizer"); err != nil {
		errs = append(errs, err)
	}
	if c.WAF != nil {
		if _, err := composeRules(c.WAF); err != nil {
			errs = append(errs, fmt.Errorf("waf: %w", err))
		}
	}
	if c.Domain != nil {
		if c.Domain.DomainName == "" {
			errs = append(errs, errors.New("domain.domainName is required"))
		}
		if c.Domain.HostedZoneName == "" {
			errs = append(errs, errors.New("domain.hostedZoneName is required"))
		}
		if c.Domain.DomainName != "" && c.Domain.HostedZoneName != "" &&
			c.Domain.DomainName != c.Domain.HostedZoneName &&
			!strings.HasSuffix(c.Domain.DomainName, "."+c.Domain.HostedZoneName) {
			errs = append(errs, fmt.Errorf("domain %q is not inside hosted zone %q", c.Domain.DomainName, c.Domain.HostedZoneName))
		}
	}

	return errors.Join(errs...)
}

func (f *FunctionConfig) validate(name string) error {
	if f.Entry == "" && f.AssetDir == "" {
		return fmt.Errorf("%s: entry or assetDir is required", name)
	}
	if f.MemoryMB < 128 || f.MemoryMB > 10240 {
		return fmt.Errorf("%s: memoryMB must be between 128 and 10240, got %d", name, f.MemoryMB)
	}
	if f.TimeoutSeconds < 1 || f.TimeoutSeconds > 900 {
		return fmt.Errorf("%s: timeoutSeconds must be between 1 and 900, got %d", name, f.TimeoutSeconds)
	}
	if f.Architecture != "arm64" && f.Architecture != "x86_64" {
		return fmt.Errorf("%s: architecture must be arm64 or x86_64, got %q", name, f.Architecture)
	}
	return nil
}
