package http

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type MessageEncoder struct {
	bw *bufio.Writer
}

func (me *MessageEncoder) writeLine(line []byte) error {
	if _, err := me.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := me.bw.Write(CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (me *MessageEncoder) encodeHeaders(headers []Field) error {
	for _, field := range headers {
		if err := me.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// An empty line closes the header section.
	if err := me.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (me *MessageEncoder) encodeBody(body io.Reader) error {
	// Flush the header section first, so the peer can start parsing.
	if err := me.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing start line & header")
	}

	if body == nil {
		return nil
	}

	if _, err := me.bw.ReadFrom(body); err != nil {
		return errors.Wrap(err, "writing body")
	}

	if err := me.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing body")
	}

	return nil
}

type RequestEncoder struct{ MessageEncoder }

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{MessageEncoder{bw: bufio.NewWriter(w)}}
}

func (re *RequestEncoder) Encode(request Request) error {
	if err := re.encodeRequestLine(request.RequestLine); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	return re.encodeBody(request.Body)
}

func (re *RequestEncoder) encodeRequestLine(reqLine RequestLine) error {
	line := make([]byte, 0, len(reqLine.Method)+len(reqLine.Target)+10)
	line = append(line, reqLine.Method...)
	line = append(line, SP)
	line = append(line, reqLine.Target...)
	line = append(line, SP)
	line = append(line, reqLine.Version.Text()...)

	return re.writeLine(line)
}

type ResponseEncoder struct{ MessageEncoder }

func NewResponseEncoder(w io.Writer) *ResponseEncoder {
	return &ResponseEncoder{MessageEncoder{bw: bufio.NewWriter(w)}}
}

func (re *ResponseEncoder) Encode(response Response) error {
	if err := re.encodeStatusLine(response.StatusLine); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	if err := re.encodeHeaders(response.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	return re.encodeBody(response.Body)
}

func (re *ResponseEncoder) encodeStatusLine(statLine StatusLine) error {
	line := statLine.Version.Text()
	line = append(line, SP)
	line = strconv.AppendInt(line, int64(statLine.StatusCode), 10)
	line = append(line, SP)
	line = append(line, statLine.ReasonPhrase...)

	return re.writeLine(line)
}
