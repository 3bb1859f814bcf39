// Package render turns a markup body into its visible text.
//
// Everything between '<' and the next '>' is dropped. There is no entity decoding,
// and a '<' inside a quoted attribute value still opens a tag.
package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type tagState uint8

const (
	outsideTag tagState = iota
	insideTag
)

const (
	tagOpen  = '<'
	tagClose = '>'
)

// next returns the state after r and whether r is visible.
func (s tagState) next(r rune) (tagState, bool) {
	switch r {
	case tagOpen:
		return insideTag, false
	case tagClose:
		return outsideTag, false
	}
	return s, s == outsideTag
}

// Render writes the visible characters of body to w.
// Unbalanced markup is not an error; the text is cut wherever the state leaves it.
func Render(w io.Writer, body string) error {
	bw := bufio.NewWriter(w)

	state := outsideTag
	for _, r := range body {
		var visible bool
		if state, visible = state.next(r); !visible {
			continue
		}
		if _, err := bw.WriteRune(r); err != nil {
			return errors.Wrap(err, "writing text")
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing text")
	}

	return nil
}

// Strip returns the visible characters of body.
func Strip(body string) string {
	var sb strings.Builder
	sb.Grow(len(body))

	// strings.Builder never fails to write.
	_ = Render(&sb, body)

	return sb.String()
}
