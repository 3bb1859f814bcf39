package semantic

import (
	"web-browser/application/http"
	"web-browser/application/util/uri"
)

type Method string

const MethodGet Method = "GET"

// DefaultUserAgent identifies the client on every request.
const DefaultUserAgent = "WebBrowserEngineering/1.0"

// Request is a single GET for one exchange.
// The connection is always asked to close after the response.
type Request struct {
	Method    Method
	Address   uri.Address
	Version   http.Version
	UserAgent string
}

func NewGetRequest(addr uri.Address, userAgent string) Request {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return Request{
		Method:    MethodGet,
		Address:   addr,
		Version:   http.Version11,
		UserAgent: userAgent,
	}
}

// RawRequest builds the message with the field order Host, Connection, User-Agent.
// Host carries the host only, even for a non-default port.
func (r Request) RawRequest() http.Request {
	return http.Request{
		RequestLine: http.RequestLine{
			Method:  string(r.Method),
			Target:  r.Address.Path,
			Version: r.Version,
		},
		Headers: []http.Field{
			{Name: []byte("Host"), Value: []byte(r.Address.Host)},
			{Name: []byte("Connection"), Value: []byte("close")},
			{Name: []byte("User-Agent"), Value: []byte(r.UserAgent)},
		},
	}
}
