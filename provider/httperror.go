package provider

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// errorEnvelope captures the common {"error": {"message": "..."}} shape used
// by OpenAI, Anthropic, and Google's REST APIs.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// readErrorMessage extracts a human-readable message from a vendor error
// body, falling back to the raw body text when it isn't the expected envelope.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 16<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

// outputForStatus classifies an HTTP response status into the ModelOutput
// status/error_detail pair Generate returns on a non-success response.
func outputForStatus(status int, message string) (Status, string) {
	switch {
	case status == http.StatusTooManyRequests:
		return StatusFailed, "rate_limited: " + message
	case status == http.StatusRequestEntityTooLarge:
		return StatusFailed, "context_too_long: " + message
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return StatusFailed, "authentication_error: " + message
	case status == http.StatusNotFound:
		return StatusFailed, "model_not_found: " + message
	case status == http.StatusBadRequest:
		return StatusFailed, "invalid_request: " + message
	case status == 529 || status == http.StatusServiceUnavailable:
		return StatusFailed, "model_overloaded: " + message
	case status >= 500:
		return StatusFailed, "upstream_error: " + message
	default:
		return StatusFailed, "upstream_error: " + message
	}
}
