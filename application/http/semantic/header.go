package semantic

import (
	"strings"

	"web-browser/application/http"
)

// Headers maps lower-cased field names to a single value.
// Names are folded on insert and on lookup, so access is case-insensitive.
type Headers struct{ underlying map[string]string }

func NewHeaders(initial map[string]string) Headers {
	clone := make(map[string]string, len(initial))
	for k, v := range initial {
		clone[canonical(k)] = v
	}

	return Headers{underlying: clone}
}

// HeadersFrom creates semantic header from raw fields.
// When a name repeats, the last value wins.
func HeadersFrom(fields []http.Field) Headers {
	h := NewHeaders(nil)
	for _, field := range fields {
		h.Set(string(field.Name), strings.TrimSpace(string(field.Value)))
	}

	return h
}

// Fields returns a copy of all the name-values in the header.
func (h *Headers) Fields() map[string]string {
	clone := make(map[string]string, len(h.underlying))
	for k, v := range h.underlying {
		clone[k] = v
	}

	return clone
}

func (h *Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[canonical(key)]
	return
}

func (h *Headers) Has(key string) bool {
	_, ok := h.underlying[canonical(key)]
	return ok
}

// Set overwrites existing value.
func (h *Headers) Set(key, value string) {
	if h.underlying == nil {
		h.underlying = make(map[string]string)
	}
	h.underlying[canonical(key)] = value
}

func (h *Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

func (h *Headers) Len() int { return len(h.underlying) }

func canonical(s string) string { return strings.ToLower(s) }
