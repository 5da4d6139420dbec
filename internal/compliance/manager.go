package compliance

import (
	"context"
	"regexp"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/events"
	"toolgate/pkg/logging"
)

// Audit actions emitted by the manager itself.
const (
	ActionValidated       = "COMPLIANCE_VALIDATED"
	ActionConsentRejected = "GDPR_CONSENT_REJECTED"
	ActionSCARejected     = "PSD2_SCA_REJECTED"
)

// analyticsOpRe marks operations whose payloads are minimized to the
// analytics allow-list.
var analyticsOpRe = regexp.MustCompile(`analytics|report|metrics|export`)

type operationKey struct{}

// WithOperation attaches the operation name being filtered to the context so
// operation-sensitive rules (SCA, analytics minimization) can see it.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey{}, name)
}

func operationFrom(ctx context.Context) string {
	if name, ok := ctx.Value(operationKey{}).(string); ok {
		return name
	}
	return ""
}

// Manager is the compliance pipeline: per-regulation validators over service
// descriptors, request/response data filters, and the audit trail. It
// implements api.ComplianceHandler.
type Manager struct {
	services map[string]catalog.ServiceDescriptor
	fields   *FieldLists
	enc      *Encryptor
	pseudo   *Pseudonymizer
	audit    *AuditLog
	bus      *events.Bus

	cache *resultCache
}

// NewManager wires the compliance pipeline. Encryptor and pseudonymizer may
// be nil when no service enables the regulations that need them; filters
// degrade by dropping fields they cannot protect.
func NewManager(services []catalog.ServiceDescriptor, fields *FieldLists, enc *Encryptor, pseudo *Pseudonymizer, audit *AuditLog, bus *events.Bus) *Manager {
	byName := make(map[string]catalog.ServiceDescriptor, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
	}
	return &Manager{
		services: byName,
		fields:   fields,
		enc:      enc,
		pseudo:   pseudo,
		audit:    audit,
		bus:      bus,
		cache:    newResultCache(),
	}
}

// ValidateService runs every enabled regulation validator for the named
// service. The aggregate is COMPLIANT only when all enabled validators pass.
// Results are cached per service; the cache is advisory and each call
// revalidates.
func (m *Manager) ValidateService(name string) (api.ComplianceResult, error) {
	svc, ok := m.services[name]
	if !ok {
		return api.ComplianceResult{}, api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", name)
	}

	result := api.ComplianceResult{
		Overall:     "COMPLIANT",
		Regulations: make(map[string]api.RegulationOutcome),
		LastChecked: time.Now().UTC(),
	}
	for _, regulation := range enabledRegulations(svc.Compliance) {
		outcome := validators[regulation](&svc)
		result.Regulations[regulation] = outcome
		if !outcome.Compliant {
			result.Overall = "NON_COMPLIANT"
		}
		result.Violations = append(result.Violations, outcome.Violations...)
		result.Recommendations = append(result.Recommendations, outcome.Recommendations...)
	}

	m.cache.put(name, result)
	if m.audit != nil {
		m.audit.Record(ActionValidated, map[string]interface{}{
			"service": name,
			"overall": result.Overall,
		})
	}
	logging.Debug("Compliance", "Validated %s: %s (%d regulations)", name, result.Overall, len(result.Regulations))
	return result, nil
}

// CachedResult returns the last validation result for a service, if any.
func (m *Manager) CachedResult(name string) (api.ComplianceResult, bool) {
	return m.cache.get(name)
}

// FilterRequest applies the request-side data handling rules for a service:
// PSD2 SCA enforcement, GDPR consent gating and pseudonymization, PCI
// masking/encryption/prohibited-field removal, and analytics minimization.
// The input payload is never mutated.
func (m *Manager) FilterRequest(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error) {
	svc, ok := m.services[service]
	if !ok {
		return nil, api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", service)
	}

	cfg := m.fields.Current()
	operation := operationFrom(ctx)
	filtered := clonePayload(payload)

	// Enforcement gates run before any mutation so a rejected payload is
	// returned to the caller untouched.
	if svc.Compliance.PSD2 {
		if err := checkSCA(operation, filtered, cfg.PSD2.AmountThreshold); err != nil {
			m.rejected(service, operation, ActionSCARejected, err)
			return nil, err
		}
	}
	if svc.Compliance.GDPR {
		if err := checkConsent(filtered, cfg); err != nil {
			m.rejected(service, operation, ActionConsentRejected, err)
			return nil, err
		}
	}

	if svc.Compliance.PCI {
		applyPCI(filtered, cfg, m.enc, m.audit)
	}
	if svc.Compliance.GDPR {
		applyGDPR(filtered, cfg, m.pseudo, m.audit)
		if analyticsOpRe.MatchString(operation) {
			minimizeForAnalytics(filtered, cfg, m.audit)
		}
	}
	return filtered, nil
}

// FilterResponse applies the response-side rules. Consent and SCA are
// request-time concerns; responses get masking, encryption, prohibited-field
// removal, and pseudonymization.
func (m *Manager) FilterResponse(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error) {
	svc, ok := m.services[service]
	if !ok {
		return nil, api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", service)
	}

	cfg := m.fields.Current()
	filtered := clonePayload(payload)

	if svc.Compliance.PCI {
		applyPCI(filtered, cfg, m.enc, m.audit)
	}
	if svc.Compliance.GDPR {
		applyGDPR(filtered, cfg, m.pseudo, m.audit)
	}
	return filtered, nil
}

// RecentAuditEntries exposes the in-memory audit ring, newest last.
func (m *Manager) RecentAuditEntries(n int) []api.AuditEntry {
	if m.audit == nil {
		return nil
	}
	return m.audit.Recent(n)
}

// rejected records and publishes a compliance rejection. Details carry the
// error code and operation name, never payload values.
func (m *Manager) rejected(service, operation, action string, err error) {
	code := api.ErrorCode(err)
	if m.audit != nil {
		m.audit.Record(action, map[string]interface{}{
			"service":   service,
			"operation": operation,
			"code":      code,
		})
	}
	if m.bus != nil {
		m.bus.Publish(events.Event{
			Type:    events.TypeComplianceViolation,
			Service: service,
			Fields: map[string]interface{}{
				"operation": operation,
				"code":      code,
			},
		})
	}
}

// clonePayload deep-copies the JSON-shaped payload tree so filters never
// mutate caller state.
func clonePayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return clonePayload(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
