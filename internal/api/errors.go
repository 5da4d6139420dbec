package api

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the gateway. These are the stable, machine-readable
// identifiers returned on every error path; HTTP and MCP surfaces both use
// them verbatim.
const (
	CodeInvalidToolID       = "INVALID_TOOL_ID"
	CodeInvalidToolIDFormat = "INVALID_TOOL_ID_FORMAT"
	CodeToolNotFound        = "TOOL_NOT_FOUND"

	CodeAdapterNotFound      = "ADAPTER_NOT_FOUND"
	CodeAdapterNotExecutable = "ADAPTER_NOT_EXECUTABLE"
	CodeAdapterRequired      = "ADAPTER_REQUIRED"
	CodeMockAdapter          = "MOCK_ADAPTER"
	CodeAdapterNameCollision = "ADAPTER_NAME_COLLISION"

	CodeMissingRequiredParam = "MISSING_REQUIRED_PARAM"
	CodeInvalidParamType     = "INVALID_PARAM_TYPE"
	CodeInvalidParamValue    = "INVALID_PARAM_VALUE"
	CodeInvalidParams        = "INVALID_PARAMS"

	CodeIdempotencyRequired  = "IDEMPOTENCY_REQUIRED"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"

	CodeCircuitOpen    = "CIRCUIT_OPEN"
	CodeRetryExhausted = "RETRY_EXHAUSTED"
	CodeExecutionError = "EXECUTION_ERROR"

	CodeComplianceViolation = "COMPLIANCE_VIOLATION"
	CodeGDPRConsentRequired = "GDPR_CONSENT_REQUIRED"
	CodeSCARequired         = "SCA_REQUIRED"

	CodeSchemaViolation     = "SCHEMA_VIOLATION"
	CodeAbstractionNotFound = "ABSTRACTION_NOT_FOUND"
	CodeNoVendorAvailable   = "NO_VENDOR_AVAILABLE"

	CodeAuthFailed  = "AUTH_FAILED"
	CodeRateLimited = "RATE_LIMITED"
	CodeTimeout     = "TIMEOUT"
	CodeUpstream4xx = "UPSTREAM_4XX"
	CodeUpstream5xx = "UPSTREAM_5XX"

	CodeServiceNotFound = "SERVICE_NOT_FOUND"
)

// GatewayError is the typed error used on every gateway error path. Code is
// one of the constants above; Status carries the upstream HTTP status when
// one exists; Details holds structured context (never sensitive field
// values).
type GatewayError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewGatewayError creates a GatewayError with a formatted message.
func NewGatewayError(code, messageFmt string, args ...interface{}) *GatewayError {
	return &GatewayError{
		Code:    code,
		Message: fmt.Sprintf(messageFmt, args...),
	}
}

// WithStatus attaches an HTTP status to the error and returns it for
// chaining.
func (e *GatewayError) WithStatus(status int) *GatewayError {
	e.Status = status
	return e
}

// WithDetail attaches one structured detail to the error and returns it for
// chaining.
func (e *GatewayError) WithDetail(key string, value interface{}) *GatewayError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// AsGatewayError unwraps err into a *GatewayError if possible.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsCode reports whether err is (or wraps) a GatewayError with the given
// code.
func IsCode(err error, code string) bool {
	ge, ok := AsGatewayError(err)
	return ok && ge.Code == code
}

// ErrorCode extracts the gateway error code from err, falling back to
// EXECUTION_ERROR for untyped errors.
func ErrorCode(err error) string {
	if ge, ok := AsGatewayError(err); ok {
		return ge.Code
	}
	return CodeExecutionError
}

// HandleError creates an error CallToolResult from any error.
func HandleError(err error) *CallToolResult {
	return &CallToolResult{
		Content: []interface{}{fmt.Sprintf("%v", err)},
		IsError: true,
	}
}

// HandleErrorWithPrefix creates an error CallToolResult with a custom prefix
// for more specific context.
func HandleErrorWithPrefix(err error, prefix string) *CallToolResult {
	return &CallToolResult{
		Content: []interface{}{fmt.Sprintf("%s: %v", prefix, err)},
		IsError: true,
	}
}
