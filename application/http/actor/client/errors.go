package client

import "github.com/pkg/errors"

var (
	// ErrConnection is the kind of transport failures: dial, handshake and socket I/O.
	ErrConnection = errors.New("connection failed")

	// ErrUnsupportedResponse is the kind of responses whose body can't be taken as is.
	ErrUnsupportedResponse = errors.New("unsupported response")

	ErrTransferEncoding = errors.WithMessage(ErrUnsupportedResponse, "transfer-encoding is not supported")
	ErrContentEncoding  = errors.WithMessage(ErrUnsupportedResponse, "content-encoding is not supported")
)

// connError keeps the transport error reachable while matching [ErrConnection].
type connError struct {
	op    string
	cause error
}

func (e *connError) Error() string {
	return e.op + ": " + ErrConnection.Error() + ": " + e.cause.Error()
}

func (e *connError) Unwrap() error { return e.cause }

func (e *connError) Is(target error) bool { return target == ErrConnection }

func connectionFailed(op string, err error) error {
	return &connError{op: op, cause: err}
}
