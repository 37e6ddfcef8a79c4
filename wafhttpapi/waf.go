package wafhttpapi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awswafv2"
	"github.com/aws/jsii-runtime-go"
)

// RateLimitRuleName is the name of the rule added by WAFConfig.RateLimit.
const RateLimitRuleName = "RateLimitRule"

var metricNameInvalid = regexp.MustCompile(`[^A-Za-z0-9_#:.\-/]`)

// wafRule is one composed WebACL rule before conversion to CDK properties.
type wafRule struct {
	Name      string
	Priority  int
	Managed   *ManagedRuleConfig
	RateLimit int
	Statement map[string]interface{}
	Action    string
}

// composeRules builds the ordered WebACL rule list: managed rule groups at
// priorities 1..n, then the rate-limit rule, then custom rules. Custom rules
// without a priority are numbered after the highest priority in use.
func composeRules(cfg *WAFConfig) ([]wafRule, error) {
	if cfg == nil {
		cfg = &WAFConfig{}
	}

	var rules []wafRule
	used := make(map[int]string)
	names := make(map[string]bool)

	add := func(r wafRule) error {
		if r.Name == "" {
			return fmt.Errorf("rule at priority %d has no name", r.Priority)
		}
		if names[r.Name] {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		if other, ok := used[r.Priority]; ok {
			return fmt.Errorf("rules %q and %q share priority %d", other, r.Name, r.Priority)
		}
		names[r.Name] = true
		used[r.Priority] = r.Name
		rules = append(rules, r)
		return nil
	}

	if !cfg.DisableManagedRules {
		managed := cfg.ManagedRules
		if len(managed) == 0 {
			managed = DefaultManagedRules()
		}
		for i := range managed {
			m := managed[i]
			if m.Name == "" {
				return nil, fmt.Errorf("managed rule %d has no name", i)
			}
			if m.VendorName == "" {
				m.VendorName = "AWS"
			}
			if err := add(wafRule{
				Name:     fmt.Sprintf("%s-%s", m.VendorName, m.Name),
				Priority: i + 1,
				Managed:  &m,
			}); err != nil {
				return nil, err
			}
		}
	}

	next := len(rules) + 1

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rateLimit must not be negative, got %d", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 {
		if cfg.RateLimit < 10 {
			return nil, fmt.Errorf("rateLimit must be at least 10, got %d", cfg.RateLimit)
		}
		if err := add(wafRule{
			Name:      RateLimitRuleName,
			Priority:  next,
			RateLimit: cfg.RateLimit,
			Action:    "block",
		}); err != nil {
			return nil, err
		}
	}

	var unnumbered []RuleConfig
	for _, rc := range cfg.Rules {
		if err := validateCustomRule(rc); err != nil {
			return nil, err
		}
		if rc.Priority == 0 {
			unnumbered = append(unnumbered, rc)
			continue
		}
		if err := add(customRule(rc, rc.Priority)); err != nil {
			return nil, err
		}
	}

	highest := 0
	for p := range used {
		if p > highest {
			highest = p
		}
	}
	for _, rc := range unnumbered {
		highest++
		if err := add(customRule(rc, highest)); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules, nil
}

func validateCustomRule(rc RuleConfig) error {
	if rc.Priority < 0 {
		return fmt.Errorf("rule %q: priority must not be negative", rc.Name)
	}
	if len(rc.Statement) == 0 {
		return fmt.Errorf("rule %q: statement is required", rc.Name)
	}
	switch rc.Action {
	case "", "block", "allow", "count":
	default:
		return fmt.Errorf("rule %q: action must be block, allow or count, got %q", rc.Name, rc.Action)
	}
	return nil
}

func customRule(rc RuleConfig, priority int) wafRule {
	action := rc.Action
	if action == "" {
		action = "block"
	}
	return wafRule{
		Name:      rc.Name,
		Priority:  priority,
		Statement: cfnKeys(rc.Statement),
		Action:    action,
	}
}

// cfnKeys returns a copy of a camelCase statement with every map key
// upper-cased to the CloudFormation property name. CDK only renames the keys
// of typed statement properties, not the JSON bodies nested inside them
// (FieldToMatch.SingleHeader and friends).
func cfnKeys(statement map[string]interface{}) map[string]interface{} {
	out, _ := cfnKeysValue(statement).(map[string]interface{})
	return out
}

func cfnKeysValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[upperFirst(k)] = cfnKeysValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = cfnKeysValue(val)
		}
		return out
	default:
		return v
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// metricName turns an arbitrary name into a valid WAF metric name.
func metricName(name string) string {
	m := metricNameInvalid.ReplaceAllString(name, "-")
	if len(m) > 128 {
		m = m[:128]
	}
	return m
}

func visibilityConfig(name string) *awswafv2.CfnWebACL_VisibilityConfigProperty {
	return &awswafv2.CfnWebACL_VisibilityConfigProperty{
		CloudWatchMetricsEnabled: jsii.Bool(true),
		MetricName:               jsii.String(metricName(name)),
		SampledRequestsEnabled:   jsii.Bool(true),
	}
}

func ruleAction(action string) *awswafv2.CfnWebACL_RuleActionProperty {
	switch action {
	case "allow":
		return &awswafv2.CfnWebACL_RuleActionProperty{Allow: &awswafv2.CfnWebACL_AllowActionProperty{}}
	case "count":
		return &awswafv2.CfnWebACL_RuleActionProperty{Count: &awswafv2.CfnWebACL_CountActionProperty{}}
	default:
		return &awswafv2.CfnWebACL_RuleActionProperty{Block: &awswafv2.CfnWebACL_BlockActionProperty{}}
	}
}

// toCfn converts a composed rule into the CloudFormation rule property.
func (r wafRule) toCfn() *awswafv2.CfnWebACL_RuleProperty {
	prop := &awswafv2.CfnWebACL_RuleProperty{
		Name:             jsii.String(r.Name),
		Priority:         jsii.Number(float64(r.Priority)),
		VisibilityConfig: visibilityConfig(r.Name),
	}

	switch {
	case r.Managed != nil:
		group := &awswafv2.CfnWebACL_ManagedRuleGroupStatementProperty{
			VendorName: jsii.String(r.Managed.VendorName),
			Name:       jsii.String(r.Managed.Name),
		}
		if len(r.Managed.ExcludedRules) > 0 {
			excluded := make([]interface{}, len(r.Managed.ExcludedRules))
			for i, name := range r.Managed.ExcludedRules {
				excluded[i] = &awswafv2.CfnWebACL_ExcludedRuleProperty{Name: jsii.String(name)}
			}
			group.ExcludedRules = &excluded
		}
		prop.Statement = &awswafv2.CfnWebACL_StatementProperty{ManagedRuleGroupStatement: group}
		prop.OverrideAction = &awswafv2.CfnWebACL_OverrideActionProperty{None: map[string]interface{}{}}
	case r.RateLimit > 0:
		prop.Statement = &awswafv2.CfnWebACL_StatementProperty{
			RateBasedStatement: &awswafv2.CfnWebACL_RateBasedStatementProperty{
				Limit:            jsii.Number(float64(r.RateLimit)),
				AggregateKeyType: jsii.String("IP"),
			},
		}
		prop.Action = ruleAction(r.Action)
	default:
		// Rendered by a property override in createWebAcl.
		prop.Statement = map[string]interface{}{}
		prop.Action = ruleAction(r.Action)
	}

	return prop
}
