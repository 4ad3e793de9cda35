package aptos

import (
	"encoding/json"
	"fmt"
)

// HTTPError is returned when the node answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("aptos node returned HTTP %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("aptos node returned HTTP %d", e.StatusCode)
}

// Message extracts the "message" field of an Aptos API error body, falling back to the raw body.
func (e *HTTPError) Message() string {
	var apiErr struct {
		Message   string `json:"message"`
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal([]byte(e.Body), &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.ErrorCode != "" {
			return fmt.Sprintf("%s (%s)", apiErr.Message, apiErr.ErrorCode)
		}
		return apiErr.Message
	}

	const maxBody = 256
	if len(e.Body) > maxBody {
		return e.Body[:maxBody] + "..."
	}
	return e.Body
}
