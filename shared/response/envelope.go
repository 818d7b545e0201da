// Package response builds the uniform envelope returned by every API call.
package response

import (
	"encoding/json"
	"strconv"
	"time"
)

// Metadata keys.
const (
	APIVersion   = "api_version"
	RequestDate  = "request_date"
	HTTPResponse = "http_response"
	ErrorMessage = "error_message"
)

// APIVersionV1 is reported in the api_version metadata of every v1 response.
const APIVersionV1 = "v1"

// RequestDateLayout matches the format clients of the v1 API already parse.
const RequestDateLayout = time.UnixDate

// Envelope wraps a result payload together with request metadata.
// Data is omitted on error.
type Envelope[T any] struct {
	Data     []T               `json:"data,omitempty"`
	Metadata map[string]string `json:"metadata"`
}

// Status returns the HTTP status recorded in the metadata, or 0 if it is missing.
func (e Envelope[T]) Status() int {
	code, err := strconv.Atoi(e.Metadata[HTTPResponse])
	if err != nil {
		return 0
	}
	return code
}

// IsError reports whether the envelope carries an error message.
func (e Envelope[T]) IsError() bool {
	_, ok := e.Metadata[ErrorMessage]
	return ok
}

// String returns the JSON form of the envelope for logging.
func (e Envelope[T]) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func newMetadata(apiVersion string, requestDate time.Time) map[string]string {
	return map[string]string{
		APIVersion:  apiVersion,
		RequestDate: requestDate.Format(RequestDateLayout),
	}
}

// Success wraps payload with status as the recorded http_response.
// Use 200 for reads, updates and deletes, 201 for creates.
func Success[T any](payload []T, status int, apiVersion string, requestDate time.Time) Envelope[T] {
	md := newMetadata(apiVersion, requestDate)
	md[HTTPResponse] = strconv.Itoa(status)
	return Envelope[T]{Data: payload, Metadata: md}
}

// Failure builds an error envelope. Data is left empty.
func Failure[T any](message string, status int, apiVersion string, requestDate time.Time) Envelope[T] {
	md := newMetadata(apiVersion, requestDate)
	md[HTTPResponse] = strconv.Itoa(status)
	md[ErrorMessage] = message
	return Envelope[T]{Metadata: md}
}
