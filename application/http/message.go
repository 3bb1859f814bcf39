package http

import "io"

type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

type Request struct {
	RequestLine
	Headers []Field

	// Body is written as is after the header section. It may be nil.
	Body io.Reader
}

type StatusLine struct {
	Version      Version
	StatusCode   int
	ReasonPhrase string
}

type Response struct {
	StatusLine
	Headers []Field

	// Body is whatever follows the header section on the stream.
	Body io.Reader
}
