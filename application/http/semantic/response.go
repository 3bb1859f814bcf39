package semantic

import (
	"web-browser/application/http"
)

// Status is exposed to callers but never acted upon.
type Status struct {
	Code        int
	Explanation string
}

type Response struct {
	Version http.Version
	Status  Status
	Headers Headers

	// Body is the decoded text, read until the peer closed the connection.
	Body string
}

// ResponseFrom takes the status line and header section of raw.
// The body is left for the caller to read.
func ResponseFrom(raw http.Response) *Response {
	return &Response{
		Version: raw.Version,
		Status:  Status{Code: raw.StatusCode, Explanation: raw.ReasonPhrase},
		Headers: HeadersFrom(raw.Headers),
	}
}
