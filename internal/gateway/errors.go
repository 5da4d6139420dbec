package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
)

// errorPayload is the canonical HTTP error shape.
type errorPayload struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"requestId"`
	Timestamp time.Time              `json:"ts"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// statusForCode maps gateway error codes onto HTTP statuses. An explicit
// upstream status on the error wins.
func statusForCode(code string) int {
	switch code {
	case api.CodeToolNotFound, api.CodeAdapterNotFound, api.CodeServiceNotFound, api.CodeAbstractionNotFound:
		return http.StatusNotFound
	case api.CodeInvalidToolID, api.CodeInvalidToolIDFormat, api.CodeInvalidParams,
		api.CodeMissingRequiredParam, api.CodeInvalidParamType, api.CodeInvalidParamValue,
		api.CodeSchemaViolation, api.CodeIdempotencyRequired, api.CodeConfirmationRequired,
		api.CodeAdapterRequired:
		return http.StatusBadRequest
	case api.CodeAuthFailed:
		return http.StatusUnauthorized
	case api.CodeGDPRConsentRequired, api.CodeSCARequired, api.CodeComplianceViolation:
		return http.StatusForbidden
	case api.CodeMockAdapter, api.CodeAdapterNotExecutable:
		return http.StatusConflict
	case api.CodeRateLimited:
		return http.StatusTooManyRequests
	case api.CodeCircuitOpen, api.CodeNoVendorAvailable:
		return http.StatusServiceUnavailable
	case api.CodeRetryExhausted, api.CodeUpstream5xx:
		return http.StatusBadGateway
	case api.CodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError renders any error as the canonical payload. Typed errors keep
// their code and details; untyped errors surface as EXECUTION_ERROR.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	payload := errorPayload{
		Error:     api.CodeExecutionError,
		Message:   err.Error(),
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusInternalServerError

	if ge, ok := api.AsGatewayError(err); ok {
		payload.Error = ge.Code
		payload.Message = ge.Message
		payload.Details = ge.Details
		if ge.Status > 0 {
			status = ge.Status
		} else {
			status = statusForCode(ge.Code)
		}
	}

	writeJSON(w, status, payload)
}

// writeCode renders a bare coded error without an underlying error value.
func writeCode(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, statusForCode(code), errorPayload{
		Error:     code,
		Message:   message,
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Gateway", err, "Failed to encode response body")
	}
}

func requestIDFrom(r *http.Request) string {
	return r.Header.Get(headerRequestID)
}
