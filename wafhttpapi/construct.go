package wafhttpapi

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awswafv2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/google/uuid"
)

// SecretHeaderName is the origin custom header CloudFront adds to every
// request forwarded to the HTTP API.
const SecretHeaderName = "X-Origin-Verify"

// WafHttpApiProps configures a WafHttpApi.
type WafHttpApiProps struct {
	// HttpApi is the API placed behind CloudFront. Required.
	HttpApi awsapigatewayv2.IHttpApi

	// WAF customizes the WebACL rules.
	WAF *WAFConfig

	// SecretHeaderValue pins the origin-verify secret.
	SecretHeaderValue string

	// Domain enables a custom domain.
	Domain *DomainConfig
}

// WafHttpApi fronts an HTTP API with a WAF-protected CloudFront distribution
// that proves its identity to the origin with a secret header.
type WafHttpApi struct {
	constructs.Construct

	// SecretHeaderValue is the value CloudFront sends in SecretHeaderName.
	SecretHeaderValue string

	// WebAcl is the CLOUDFRONT-scoped WebACL attached to the distribution.
	WebAcl awswafv2.CfnWebACL

	// Distribution is the CloudFront distribution in front of the API.
	Distribution awscloudfront.Distribution

	// Certificate is set when a custom domain is configured.
	Certificate awscertificatemanager.ICertificate

	// CustomDomain is the custom domain name, empty when none is configured.
	CustomDomain string
}

// NewSecretHeaderValue returns a fresh random origin-verify secret.
func NewSecretHeaderValue() string {
	return uuid.NewString()
}

// NewWafHttpApi creates the WebACL, distribution and optional custom domain.
func NewWafHttpApi(scope constructs.Construct, id string, props *WafHttpApiProps) *WafHttpApi {
	if props == nil || props.HttpApi == nil {
		panic(fmt.Sprintf("WafHttpApi %s: HttpApi is required", id))
	}

	rules, err := composeRules(props.WAF)
	if err != nil {
		panic(fmt.Sprintf("WafHttpApi %s: invalid WAF configuration: %v", id, err))
	}

	secret := props.SecretHeaderValue
	if secret == "" {
		secret = NewSecretHeaderValue()
	}

	w := &WafHttpApi{
		Construct:         constructs.NewConstruct(scope, jsii.String(id)),
		SecretHeaderValue: secret,
	}

	w.createWebAcl(id, rules)
	w.createDistribution(props)

	return w
}

// createWebAcl creates the AWS::WAFv2::WebACL resource.
func (w *WafHttpApi) createWebAcl(id string, rules []wafRule) {
	cfnRules := make([]interface{}, len(rules))
	for i, r := range rules {
		cfnRules[i] = r.toCfn()
	}

	w.WebAcl = awswafv2.NewCfnWebACL(w.Construct, jsii.String("WebAcl"), &awswafv2.CfnWebACLProps{
		Scope: jsii.String("CLOUDFRONT"),
		DefaultAction: &awswafv2.CfnWebACL_DefaultActionProperty{
			Allow: &awswafv2.CfnWebACL_AllowActionProperty{},
		},
		VisibilityConfig: visibilityConfig(fmt.Sprintf("%s-WebAcl", id)),
		Rules:            &cfnRules,
	})

	for i, r := range rules {
		if r.Statement != nil {
			w.WebAcl.AddPropertyOverride(jsii.String(fmt.Sprintf("Rules.%d.Statement", i)), r.Statement)
		}
	}
}

// createDistribution creates the CloudFront distribution and, when a domain
// is configured, its certificate and DNS records.
func (w *WafHttpApi) createDistribution(props *WafHttpApiProps) {
	// ApiEndpoint is https://{id}.execute-api.{region}.{suffix}
	originDomain := awscdk.Fn_Select(jsii.Number(2), awscdk.Fn_Split(jsii.String("/"), props.HttpApi.ApiEndpoint(), nil))

	origin := awscloudfrontorigins.NewHttpOrigin(originDomain, &awscloudfrontorigins.HttpOriginProps{
		ProtocolPolicy: awscloudfront.OriginProtocolPolicy_HTTPS_ONLY,
		CustomHeaders: &map[string]*string{
			SecretHeaderName: jsii.String(w.SecretHeaderValue),
		},
	})

	distProps := &awscloudfront.DistributionProps{
		Comment: jsii.String("WAF-protected HTTP API"),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               origin,
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
			AllowedMethods:       awscloudfront.AllowedMethods_ALLOW_ALL(),
			CachePolicy:          awscloudfront.CachePolicy_CACHING_DISABLED(),
			OriginRequestPolicy:  awscloudfront.OriginRequestPolicy_ALL_VIEWER_EXCEPT_HOST_HEADER(),
		},
		WebAclId: w.WebAcl.AttrArn(),
	}

	var zone awsroute53.IHostedZone
	if props.Domain != nil {
		zone = w.hostedZone(props.Domain)
		w.Certificate = w.certificate(props.Domain, zone)
		w.CustomDomain = props.Domain.DomainName
		distProps.DomainNames = jsii.Strings(props.Domain.DomainName)
		distProps.Certificate = w.Certificate
	}

	w.Distribution = awscloudfront.NewDistribution(w.Construct, jsii.String("Distribution"), distProps)

	if zone != nil {
		target := awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(w.Distribution))
		awsroute53.NewARecord(w.Construct, jsii.String("AliasRecord"), &awsroute53.ARecordProps{
			Zone:       zone,
			RecordName: jsii.String(props.Domain.DomainName),
			Target:     target,
		})
		awsroute53.NewAaaaRecord(w.Construct, jsii.String("AliasRecordIpv6"), &awsroute53.AaaaRecordProps{
			Zone:       zone,
			RecordName: jsii.String(props.Domain.DomainName),
			Target:     target,
		})
	}
}

// hostedZone imports the hosted zone by ID, or looks it up by name.
func (w *WafHttpApi) hostedZone(domain *DomainConfig) awsroute53.IHostedZone {
	if domain.HostedZoneID != "" {
		return awsroute53.HostedZone_FromHostedZoneAttributes(w.Construct, jsii.String("HostedZone"), &awsroute53.HostedZoneAttributes{
			HostedZoneId: jsii.String(domain.HostedZoneID),
			ZoneName:     jsii.String(domain.HostedZoneName),
		})
	}
	return awsroute53.HostedZone_FromLookup(w.Construct, jsii.String("HostedZone"), &awsroute53.HostedZoneProviderProps{
		DomainName: jsii.String(domain.HostedZoneName),
	})
}

// certificate imports the configured certificate or issues a DNS-validated one.
func (w *WafHttpApi) certificate(domain *DomainConfig, zone awsroute53.IHostedZone) awscertificatemanager.ICertificate {
	if domain.CertificateARN != "" {
		return awscertificatemanager.Certificate_FromCertificateArn(w.Construct, jsii.String("Certificate"), jsii.String(domain.CertificateARN))
	}
	return awscertificatemanager.NewCertificate(w.Construct, jsii.String("Certificate"), &awscertificatemanager.CertificateProps{
		DomainName: jsii.String(domain.DomainName),
		Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
	})
}

// DistributionURL returns the https URL of the distribution.
func (w *WafHttpApi) DistributionURL() *string {
	return jsii.String(fmt.Sprintf("https://%s", *w.Distribution.DistributionDomainName()))
}
