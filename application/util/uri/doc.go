// Package uri resolves "scheme://host[:port][/path]" URLs into network addresses.
//
// Only the http and https schemes are understood. Percent-encoding, IPv6 literals
// and userinfo are not interpreted.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986#section-3
package uri
