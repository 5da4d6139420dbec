package compliance

import (
	"strings"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
)

// validator is one regulation's predicate over a service descriptor.
type validator func(d *catalog.ServiceDescriptor) api.RegulationOutcome

// validators maps regulation names to their predicates. A regulation runs
// only when the descriptor's compliance flags enable it.
var validators = map[string]validator{
	"PCI":   validatePCI,
	"GDPR":  validateGDPR,
	"PSD2":  validatePSD2,
	"SOX":   validateSOX,
	"HIPAA": validateHIPAA,
}

func enabledRegulations(flags catalog.ComplianceFlags) []string {
	var names []string
	if flags.PCI {
		names = append(names, "PCI")
	}
	if flags.GDPR {
		names = append(names, "GDPR")
	}
	if flags.PSD2 {
		names = append(names, "PSD2")
	}
	if flags.SOX {
		names = append(names, "SOX")
	}
	if flags.HIPAA {
		names = append(names, "HIPAA")
	}
	return names
}

func validatePCI(d *catalog.ServiceDescriptor) api.RegulationOutcome {
	var out api.RegulationOutcome
	out.Compliant = true

	if !strings.HasPrefix(d.BaseURL, "https://") {
		out.Compliant = false
		out.Violations = append(out.Violations, "card data must not travel over plaintext transport")
	}
	if d.Authentication.Type == catalog.AuthNone {
		out.Compliant = false
		out.Violations = append(out.Violations, "card-handling service requires authenticated access")
	}
	if d.Authentication.Type == catalog.AuthBasic {
		out.Recommendations = append(out.Recommendations, "prefer token-based auth over basic credentials for card-handling services")
	}
	return out
}

func validateGDPR(d *catalog.ServiceDescriptor) api.RegulationOutcome {
	var out api.RegulationOutcome
	out.Compliant = true

	if !strings.HasPrefix(d.BaseURL, "https://") {
		out.Compliant = false
		out.Violations = append(out.Violations, "personal data must not travel over plaintext transport")
	}
	if region, ok := d.Metadata["dataRegion"].(string); !ok || region == "" {
		out.Recommendations = append(out.Recommendations, "declare a dataRegion in service metadata to document where personal data is processed")
	}
	return out
}

func validatePSD2(d *catalog.ServiceDescriptor) api.RegulationOutcome {
	var out api.RegulationOutcome
	out.Compliant = true

	if !strings.HasPrefix(d.BaseURL, "https://") {
		out.Compliant = false
		out.Violations = append(out.Violations, "payment initiation must not travel over plaintext transport")
	}
	switch d.Authentication.Type {
	case catalog.AuthNone, catalog.AuthAPIKey:
		out.Compliant = false
		out.Violations = append(out.Violations, "payment services require strong client authentication (bearer, oauth2, or hmac)")
	}
	return out
}

func validateSOX(d *catalog.ServiceDescriptor) api.RegulationOutcome {
	var out api.RegulationOutcome
	out.Compliant = true

	// Financial reporting integrity needs an attributable caller.
	if d.Authentication.Type == catalog.AuthNone {
		out.Compliant = false
		out.Violations = append(out.Violations, "financial-reporting service requires attributable authenticated access")
	}
	return out
}

func validateHIPAA(d *catalog.ServiceDescriptor) api.RegulationOutcome {
	var out api.RegulationOutcome
	out.Compliant = true

	if !strings.HasPrefix(d.BaseURL, "https://") {
		out.Compliant = false
		out.Violations = append(out.Violations, "health data must not travel over plaintext transport")
	}
	if _, ok := d.Metadata["baaSigned"]; !ok {
		out.Recommendations = append(out.Recommendations, "record baaSigned in service metadata once a business associate agreement exists")
	}
	return out
}
