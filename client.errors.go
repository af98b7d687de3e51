package main

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// maxPlainErrorSize bounds the text kept from a non-JSON error body.
const maxPlainErrorSize = 512

// ClientError is returned by resource clients for any failed call. Err is
// set on transport or codec failures. Status, Message and Messages carry
// what the server answered otherwise.
type ClientError struct {
	Method   string
	URL      string
	Status   int
	Message  string
	Messages []string
	Err      error
}

func (e *ClientError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case len(e.Messages) > 0:
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.Status, strings.Join(e.Messages, "; "))
	case e.Message != "":
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s failed with status %d", e.Method, e.URL, e.Status)
	}
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the server answered 404.
func (e *ClientError) IsNotFound() bool {
	return e.Err == nil && e.Status == http.StatusNotFound
}

// serverErrorBody is the error payload of the library backend. `data`
// holds the validation messages, usually as a list of strings.
type serverErrorBody struct {
	Message string             `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

// newServerError builds a ClientError out of a non-2xx response.
func newServerError(method, url string, resp *http.Response, body []byte) *ClientError {
	cerr := &ClientError{Method: method, URL: url, Status: resp.StatusCode}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return cerr
	}

	var payload serverErrorBody
	if err := codec.Unmarshal([]byte(trimmed), &payload); err != nil {
		mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if mediaType == "text/plain" {
			if len(trimmed) > maxPlainErrorSize {
				n := maxPlainErrorSize
				for n > 0 && !utf8.RuneStart(trimmed[n]) {
					n--
				}
				trimmed = trimmed[:n]
			}
			cerr.Message = trimmed
		}
		return cerr
	}
	cerr.Message = strings.TrimSpace(payload.Message)
	cerr.Messages = parseValidationMessages(payload.Data)
	return cerr
}

// parseValidationMessages accepts either a list of strings or a single string.
func parseValidationMessages(raw jsoniter.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := codec.Unmarshal(raw, &list); err == nil {
		messages := make([]string, 0, len(list))
		for _, m := range list {
			if m = strings.TrimSpace(m); m != "" {
				messages = append(messages, m)
			}
		}
		if len(messages) == 0 {
			return nil
		}
		return messages
	}
	var single string
	if err := codec.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{strings.TrimSpace(single)}
	}
	return nil
}
