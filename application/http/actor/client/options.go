package client

import (
	"time"

	"web-browser/application/http"
	"web-browser/application/http/semantic"
)

type Options struct {
	// UserAgent is sent on every request.
	// If empty, [semantic.DefaultUserAgent] is used.
	UserAgent string

	Receive ReceiveOptions
	Timeout TimeoutOptions
}

type ReceiveOptions struct {
	Decode http.DecodeOptions
}

type TimeoutOptions struct {
	// Exchange bounds a whole exchange, dial and handshake included.
	// Zero means no deadline: a silent peer blocks the caller forever.
	Exchange time.Duration
}

var DefaultOptions = Options{
	UserAgent: semantic.DefaultUserAgent,
	Receive: ReceiveOptions{
		Decode: http.DefaultDecodeOptions,
	},
}
