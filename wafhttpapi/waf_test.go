package wafhttpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ruleNames(rules []wafRule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

func geoStatement() map[string]interface{} {
	return map[string]interface{}{
		"geoMatchStatement": map[string]interface{}{"countryCodes": []interface{}{"KP"}},
	}
}

func TestComposeRulesDefaults(t *testing.T) {
	rules, err := composeRules(nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		"AWS-AWSManagedRulesAmazonIpReputationList",
		"AWS-AWSManagedRulesCommonRuleSet",
	}, ruleNames(rules))
	require.Equal(t, 1, rules[0].Priority)
	require.Equal(t, 2, rules[1].Priority)
	require.NotNil(t, rules[0].Managed)
}

func TestComposeRulesOrdering(t *testing.T) {
	rules, err := composeRules(&WAFConfig{
		RateLimit: 500,
		Rules: []RuleConfig{
			{Name: "Auto", Statement: geoStatement()},
			{Name: "Pinned", Priority: 10, Statement: geoStatement(), Action: "count"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"AWS-AWSManagedRulesAmazonIpReputationList",
		"AWS-AWSManagedRulesCommonRuleSet",
		RateLimitRuleName,
		"Pinned",
		"Auto",
	}, ruleNames(rules))
	require.Equal(t, 3, rules[2].Priority)
	require.Equal(t, 500, rules[2].RateLimit)
	require.Equal(t, 10, rules[3].Priority)
	require.Equal(t, "count", rules[3].Action)
	require.Equal(t, 11, rules[4].Priority)
	require.Equal(t, "block", rules[4].Action)
}

func TestComposeRulesCustomManagedList(t *testing.T) {
	rules, err := composeRules(&WAFConfig{
		ManagedRules: []ManagedRuleConfig{
			{Name: "AWSManagedRulesKnownBadInputsRuleSet", ExcludedRules: []string{"Host_localhost_HEADER"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "AWS-AWSManagedRulesKnownBadInputsRuleSet", rules[0].Name)
	require.Equal(t, "AWS", rules[0].Managed.VendorName)
}

func TestComposeRulesWithoutManaged(t *testing.T) {
	rules, err := composeRules(&WAFConfig{
		DisableManagedRules: true,
		Rules:               []RuleConfig{{Name: "Only", Statement: geoStatement()}},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 1, rules[0].Priority)
}

func TestComposeRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  WAFConfig
		msg  string
	}{
		{
			name: "duplicate priority",
			cfg:  WAFConfig{Rules: []RuleConfig{{Name: "Clash", Priority: 1, Statement: geoStatement()}}},
			msg:  "share priority 1",
		},
		{
			name: "duplicate name",
			cfg: WAFConfig{Rules: []RuleConfig{
				{Name: "Twice", Statement: geoStatement()},
				{Name: "Twice", Statement: geoStatement()},
			}},
			msg: `duplicate rule name "Twice"`,
		},
		{
			name: "missing statement",
			cfg:  WAFConfig{Rules: []RuleConfig{{Name: "Empty"}}},
			msg:  "statement is required",
		},
		{
			name: "bad action",
			cfg:  WAFConfig{Rules: []RuleConfig{{Name: "Odd", Action: "captcha", Statement: geoStatement()}}},
			msg:  "action must be",
		},
		{
			name: "rate limit too low",
			cfg:  WAFConfig{RateLimit: 5},
			msg:  "at least 10",
		},
		{
			name: "unnamed rule",
			cfg:  WAFConfig{Rules: []RuleConfig{{Statement: geoStatement()}}},
			msg:  "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := composeRules(&tt.cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMetricName(t *testing.T) {
	require.Equal(t, "AWS-AWSManagedRulesCommonRuleSet", metricName("AWS-AWSManagedRulesCommonRuleSet"))
	require.Equal(t, "Block-non-US", metricName("Block non US"))
	require.Len(t, metricName(string(make([]byte, 300))), 128)
}

func TestCfnKeysRenamesNestedKeys(t *testing.T) {
	in := map[string]interface{}{
		"byteMatchStatement": map[string]interface{}{
			"fieldToMatch": map[string]interface{}{"singleHeader": map[string]interface{}{"name": "user-agent"}},
			"textTransformations": []interface{}{
				map[string]interface{}{"priority": 0, "type": "NONE"},
			},
			"SearchString": "BadBot",
		},
	}

	require.Equal(t, map[string]interface{}{
		"ByteMatchStatement": map[string]interface{}{
			"FieldToMatch": map[string]interface{}{"SingleHeader": map[string]interface{}{"Name": "user-agent"}},
			"TextTransformations": []interface{}{
				map[string]interface{}{"Priority": 0, "Type": "NONE"},
			},
			"SearchString": "BadBot",
		},
	}, cfnKeys(in))

	// the input is left untouched
	_, ok := in["byteMatchStatement"]
	require.True(t, ok)

	rules, err := composeRules(&WAFConfig{DisableManagedRules: true, Rules: []RuleConfig{{Name: "Geo", Statement: geoStatement()}}})
	require.NoError(t, err)
	require.Contains(t, rules[0].Statement, "GeoMatchStatement")
}
