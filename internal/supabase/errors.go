package supabase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBodyBytes = 64 * 1024

// APIError is a structured error returned by PostgREST or Storage.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("supabase error: %d", e.Status)
	}
	return "supabase error"
}

// errorBody covers both error shapes: PostgREST uses code/message/details/hint,
// Storage uses error/message.
type errorBody struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		if apiErr.Code == "" {
			apiErr.Code = body.Error
		}
		apiErr.Message = body.Message
		apiErr.Details = body.Details
		apiErr.Hint = body.Hint
	}
	if apiErr.Message == "" {
		if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
			apiErr.Message = text
		} else {
			apiErr.Message = fmt.Sprintf("supabase error: %s", resp.Status)
		}
	}
	return apiErr
}
