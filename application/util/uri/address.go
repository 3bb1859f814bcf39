package uri

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"

	schemeSeparator = "://"
)

var (
	ErrMalformedURL = errors.New("malformed url")

	ErrMissingSchemeSeparator = errors.WithMessage(ErrMalformedURL, `"://" not found`)
	ErrUnsupportedScheme      = errors.WithMessage(ErrMalformedURL, "scheme is not supported")
	ErrInvalidPort            = errors.WithMessage(ErrMalformedURL, "port is not a decimal integer")
)

// Address is a resolved URL. It is built once by [Parse] and never modified.
type Address struct {
	Scheme string `validate:"oneof=http https"`
	Host   string `validate:"required"`
	Port   int    `validate:"min=1,max=65535"`
	Path   string `validate:"startswith=/"`
}

var validate = validator.New()

// DefaultPort returns the well-known port of the scheme, or 0 if it is unknown.
func DefaultPort(scheme string) int {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// Parse splits raw into scheme, host, port and path.
func Parse(raw string) (Address, error) {
	scheme, rest, found := strings.Cut(raw, schemeSeparator)
	if !found {
		return Address{}, errors.Wrapf(ErrMissingSchemeSeparator, "parsing %q", raw)
	}

	port := DefaultPort(scheme)
	if port == 0 {
		return Address{}, errors.Wrapf(ErrUnsupportedScheme, "scheme %q", scheme)
	}

	host, path := rest, "/"
	if h, p, found := strings.Cut(rest, "/"); found {
		// The separating slash belongs to the path.
		host, path = h, "/"+p
	}

	if h, p, found := strings.Cut(host, ":"); found {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Address{}, errors.Wrapf(ErrInvalidPort, "port %q", p)
		}
		host, port = h, n
	}

	addr := Address{Scheme: scheme, Host: host, Port: port, Path: path}
	if err := addr.Validate(); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// Validate reports whether the address holds its invariants.
func (a Address) Validate() error {
	if err := validate.Struct(a); err != nil {
		return errors.Wrap(ErrMalformedURL, err.Error())
	}
	return nil
}

// IsSecure reports whether the exchange must run over TLS.
func (a Address) IsSecure() bool { return a.Scheme == SchemeHTTPS }

// HostPort returns "host:port" suitable for dialing.
func (a Address) HostPort() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// String always writes the port, so parsing the result gives back an equal Address.
func (a Address) String() string {
	b := new(strings.Builder)
	b.WriteString(a.Scheme)
	b.WriteString(schemeSeparator)
	b.WriteString(a.HostPort())
	b.WriteString(a.Path)
	return b.String()
}
