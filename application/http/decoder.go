package http

import (
	"bytes"
	"io"
	"strconv"

	"web-browser/application/util/rule"
	iolib "web-browser/lib/io"

	"github.com/pkg/errors"
)

// ErrProtocol is the kind of every framing error reported by the decoders.
var ErrProtocol = errors.New("http protocol violation")

var (
	ErrIncompleteMessage = errors.WithMessage(ErrProtocol, "stream ended inside the header section")

	ErrFieldLineTooLong   = errors.WithMessage(ErrProtocol, "field line length exceeds limit")
	ErrMalformedFieldLine = errors.WithMessage(ErrProtocol, "field line is malformed")

	ErrRequestLineTooLong   = errors.WithMessage(ErrProtocol, "request line length exceeds limit")
	ErrMalformedRequestLine = errors.WithMessage(ErrProtocol, "request line is malformed")

	ErrStatusLineTooLong   = errors.WithMessage(ErrProtocol, "status line length exceeds limit")
	ErrMalformedStatusLine = errors.WithMessage(ErrProtocol, "status line is malformed")
)

type DecodeOptions struct {
	// MaxFieldLineLength sets the limit of a field line, CRLF included.
	// Zero means no limit.
	MaxFieldLineLength uint

	// MaxRequestLineLength sets the limit of the request line, CRLF included.
	// Recommended: >= 8000
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxRequestLineLength uint

	// MaxStatusLineLength sets the limit of the status line, CRLF included.
	MaxStatusLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	MaxFieldLineLength:   0,
	MaxRequestLineLength: 0,
	MaxStatusLineLength:  0,
}

var errLineTooLong = errors.New("line length exceeds limit")

type MessageDecoder struct {
	r    *iolib.UntilReader
	opts DecodeOptions
}

// readLine reads a CRLF terminated line and strips the terminator.
// A sole LF is part of the line.
func (md *MessageDecoder) readLine(limit uint) ([]byte, error) {
	b, err := md.r.ReadUntilLimit(CRLF, limit)
	if err != nil {
		switch {
		case errors.Is(err, iolib.ErrLimitExceeded):
			return nil, errLineTooLong
		case errors.Is(err, io.EOF):
			return nil, ErrIncompleteMessage
		}
		return nil, err
	}

	return b[:len(b)-len(CRLF)], nil
}

func (md *MessageDecoder) decodeHeaders(headers *[]Field) error {
	tmpHeaders := make([]Field, 0)
	for {
		fieldLine, err := md.readLine(md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrFieldLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return errors.Wrap(ErrMalformedFieldLine, err.Error())
		}

		tmpHeaders = append(tmpHeaders, field)
	}

	*headers = tmpHeaders

	return nil
}

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r *iolib.UntilReader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{MessageDecoder{r: r, opts: opts}}
}

// r MUST be a non-nil pointer
func (rd *RequestDecoder) Decode(r *Request) error {
	if err := rd.decodeRequestLine(&r.RequestLine); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.r

	return nil
}

func (rd *RequestDecoder) decodeRequestLine(reqLine *RequestLine) error {
	line, err := rd.readLine(rd.opts.MaxRequestLineLength)
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return ErrRequestLineTooLong
		}
		return errors.Wrap(err, "reading line")
	}

	parsed, err := parseRequestLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedRequestLine, err.Error())
	}

	*reqLine = parsed

	return nil
}

func parseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Split(line, []byte{SP})
	if len(parts) != 3 {
		return RequestLine{}, errors.Errorf("expected 3 parts, got %d", len(parts))
	}

	method := string(parts[0])
	if len(method) == 0 {
		return RequestLine{}, errors.New("method should not be empty")
	}
	if !rule.IsValidToken(parts[0]) {
		return RequestLine{}, errors.Errorf("method is not a token: %q", parts[0])
	}

	target := string(parts[1])
	if len(target) == 0 {
		return RequestLine{}, errors.New("request target should not be empty")
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return RequestLine{}, errors.Wrap(err, "parsing version")
	}

	return RequestLine{Method: method, Target: target, Version: ver}, nil
}

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r *iolib.UntilReader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{MessageDecoder{r: r, opts: opts}}
}

// Decode reads the status line and the header section.
// The body is left unread on r.Body.
//
// r MUST be a non-nil pointer
func (rd *ResponseDecoder) Decode(r *Response) error {
	if err := rd.decodeStatusLine(&r.StatusLine); err != nil {
		return errors.Wrap(err, "parsing status line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.r

	return nil
}

func (rd *ResponseDecoder) decodeStatusLine(statLine *StatusLine) error {
	line, err := rd.readLine(rd.opts.MaxStatusLineLength)
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return ErrStatusLineTooLong
		}
		return errors.Wrap(err, "reading line")
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	*statLine = parsed

	return nil
}

// parseStatusLine splits on the first two SP only.
// The reason phrase may contain spaces or be empty.
func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{SP}, 3)
	if len(parts) < 3 {
		return StatusLine{}, errors.Errorf("expected 3 parts, got %d", len(parts))
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCode, err := strconv.Atoi(string(parts[1]))
	if err != nil {
		return StatusLine{}, errors.Errorf("status code is not a number: %q", parts[1])
	}

	return StatusLine{Version: ver, StatusCode: statusCode, ReasonPhrase: string(parts[2])}, nil
}
