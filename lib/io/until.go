package iolib

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// UntilReader reads delimited chunks from a stream.
// Bytes buffered past a delimiter are served by subsequent reads.
type UntilReader struct {
	br *bufio.Reader
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{br: bufio.NewReader(r)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	return ur.br.Read(p)
}

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntil reads until delim. The output includes delim.
// If the stream ends first, the bytes read so far are returned with the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit is [UntilReader.ReadUntil] failing with [ErrLimitExceeded]
// once more than limit bytes were read without delim. Zero means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	lastByte := delim[len(delim)-1]
	buf := bytes.NewBuffer(nil)

	for {
		chunk, err := ur.br.ReadSlice(lastByte)
		buf.Write(chunk)

		if limit > 0 && uint(buf.Len()) > limit {
			return nil, ErrLimitExceeded
		}

		if err == nil && bytes.HasSuffix(buf.Bytes(), delim) {
			return buf.Bytes(), nil
		}

		if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
			// Underlying reader returned error before delim.
			return buf.Bytes(), err
		}
	}
}
