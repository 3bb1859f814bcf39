// Package http implements the HTTP/1.1 message syntax.
//
// It only frames messages: start line, field lines and the remaining stream as body.
// Field semantics live in package semantic.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
