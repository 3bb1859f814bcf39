package client

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"web-browser/application/http"
	"web-browser/application/http/semantic"
	"web-browser/application/util/uri"
	iolib "web-browser/lib/io"
	"web-browser/session/tls"
	"web-browser/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Client runs one exchange per call over a fresh connection.
// It holds no per-exchange state and is safe for concurrent use.
type Client struct {
	opts Options

	logger *slog.Logger
	clock  clock.Clock

	plainDialer  transport.ConnDialer
	secureDialer transport.ConnDialer
}

func New(
	d transport.ConnDialer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		opts:         opts,
		logger:       logger,
		clock:        clock,
		plainDialer:  d,
		secureDialer: tls.NewDialer(d),
	}
}

// Fetch returns the body of the response to a GET on addr.
func (c *Client) Fetch(ctx context.Context, addr uri.Address) (string, error) {
	res, err := c.Exchange(ctx, addr)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Exchange sends a GET for addr and reads the whole response.
// Responses declaring a transfer or content coding are rejected before their body is read.
func (c *Client) Exchange(ctx context.Context, addr uri.Address) (*semantic.Response, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating address")
	}

	if timeout := c.opts.Timeout.Exchange; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, connectionFailed("dialing", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			// The peer usually closed first.
			c.logger.Debug("closing connection", slog.String("addr", addr.HostPort()), slog.Any("error", err))
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, connectionFailed("setting deadline", err)
		}
	}

	request := semantic.NewGetRequest(addr, c.opts.UserAgent)
	if err := http.NewRequestEncoder(conn).Encode(request.RawRequest()); err != nil {
		return nil, connectionFailed("sending request", err)
	}
	c.logger.Debug("request sent", slog.String("method", string(request.Method)), slog.String("target", addr.Path))

	return c.readResponse(conn)
}

func (c *Client) dial(ctx context.Context, addr uri.Address) (transport.Conn, error) {
	d := c.plainDialer
	if addr.IsSecure() {
		d = c.secureDialer
	}

	c.logger.Debug("dialing", slog.String("addr", addr.HostPort()), slog.Bool("tls", addr.IsSecure()))

	return d.Dial(ctx, transport.NewAddr(addr.Host, addr.Port))
}

func (c *Client) readResponse(conn transport.Conn) (*semantic.Response, error) {
	var raw http.Response
	dec := http.NewResponseDecoder(iolib.NewUntilReader(conn), c.opts.Receive.Decode)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, http.ErrProtocol) {
			return nil, errors.Wrap(err, "reading response")
		}
		return nil, connectionFailed("reading response", err)
	}

	response := semantic.ResponseFrom(raw)
	c.logger.Debug("response received",
		slog.Int("status", response.Status.Code),
		slog.String("explanation", response.Status.Explanation),
		slog.Int("headers", response.Headers.Len()),
	)

	if err := assertPlainBody(response.Headers); err != nil {
		return nil, err
	}

	// The body ends when the peer closes. Content-Length is not honored.
	b, err := io.ReadAll(raw.Body)
	if err != nil {
		// A record cut short is a truncated body, not its end.
		return nil, connectionFailed("reading body", err)
	}

	response.Body = decodeText(b)

	return response, nil
}

func assertPlainBody(h semantic.Headers) error {
	if v, ok := h.Get("Transfer-Encoding"); ok {
		return errors.Wrapf(ErrTransferEncoding, "got %q", v)
	}
	if v, ok := h.Get("Content-Encoding"); ok {
		return errors.Wrapf(ErrContentEncoding, "got %q", v)
	}
	return nil
}

// decodeText takes b as UTF-8, replacing invalid sequences with U+FFFD.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
