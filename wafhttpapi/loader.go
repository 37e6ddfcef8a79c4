package wafhttpapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"gopkg.in/yaml.v3"
)

// Context keys read by StackConfigFromContext.
const (
	ContextConfigPath        = "config"
	ContextSecretHeaderValue = "secretHeaderValue"
)

// LoadStackConfigFromFile loads a StackConfig from a JSON or YAML file,
// chosen by extension.
func LoadStackConfigFromFile(path string) (*StackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadStackConfigFromJSON(data)
	case ".yaml", ".yml":
		return LoadStackConfigFromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadStackConfigFromJSON parses a StackConfig from JSON data.
func LoadStackConfigFromJSON(data []byte) (*StackConfig, error) {
	var config StackConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing JSON config: %w", err)
	}
	return &config, nil
}

// LoadStackConfigFromYAML parses a StackConfig from YAML data.
func LoadStackConfigFromYAML(data []byte) (*StackConfig, error) {
	var config StackConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	return &config, nil
}

// ExampleStackConfig returns the configuration written by WriteExampleConfig.
func ExampleStackConfig() StackConfig {
	return StackConfig{
		StackName: DefaultStackName,
		Region:    CloudFrontRegion,
		Tags: map[string]string{
			"Project": "waf-http-api",
		},
		API: APIConfig{
			Name:        DefaultAPIName,
			Description: DefaultAPIDescription,
		},
		Hello:      FunctionConfig{Entry: DefaultHelloEntry},
		Authorizer: FunctionConfig{Entry: DefaultAuthorizerEntry},
		WAF: &WAFConfig{
			RateLimit: 2000,
		},
		LogRetentionDays: DefaultLogRetentionDays,
	}
}

// JSONConfigExample returns an example JSON configuration.
func JSONConfigExample() string {
	data, err := json.MarshalIndent(ExampleStackConfig(), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(data) + "\n"
}

// YAMLConfigExample returns an example YAML configuration.
func YAMLConfigExample() string {
	data, err := yaml.Marshal(ExampleStackConfig())
	if err != nil {
		panic(err)
	}
	return string(data)
}

// WriteExampleConfig writes an example configuration file, formatted by extension.
func WriteExampleConfig(path string) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		content = JSONConfigExample()
	case ".yaml", ".yml":
		content = YAMLConfigExample()
	default:
		return fmt.Errorf("unsupported config format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

// NewStackFromFile creates a WafHttpApiStack from a JSON or YAML config file.
func NewStackFromFile(scope constructs.Construct, configPath string) (*WafHttpApiStack, error) {
	config, err := LoadStackConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	return NewWafHttpApiStack(scope, config.StackName, *config), nil
}

// MustNewStackFromFile is like NewStackFromFile but panics on error.
func MustNewStackFromFile(scope constructs.Construct, configPath string) *WafHttpApiStack {
	stack, err := NewStackFromFile(scope, configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to create stack from %s: %v", configPath, err))
	}
	return stack
}

// StackConfigFromContext builds the stack configuration from CDK context:
// "config" names a JSON or YAML file, "secretHeaderValue" pins the origin
// secret (the deploy command passes it after rotation).
func StackConfigFromContext(scope constructs.Construct) (StackConfig, error) {
	var config StackConfig

	if path, ok := scope.Node().TryGetContext(jsii.String(ContextConfigPath)).(string); ok && path != "" {
		loaded, err := LoadStackConfigFromFile(path)
		if err != nil {
			return StackConfig{}, err
		}
		config = *loaded
	}

	if value, ok := scope.Node().TryGetContext(jsii.String(ContextSecretHeaderValue)).(string); ok && value != "" {
		config.SecretHeaderValue = value
	}

	config.ApplyDefaults()
	return config, nil
}
