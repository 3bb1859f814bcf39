package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"log/slog"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"

	"web-browser/application/http"
	"web-browser/application/util/uri"
	iolib "web-browser/lib/io"
	"web-browser/transport"
	"web-browser/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// loopbackSuite serves raw responses on loopback listeners.
type loopbackSuite struct {
	suite.Suite

	logger *slog.Logger
	clock  clock.Clock
	client *Client

	listeners []net.Listener
	wg        sync.WaitGroup
}

func (s *loopbackSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.clock = clock.New()
	s.listeners = nil

	s.client = New(tcp.NewDialer(), s.logger, s.clock, DefaultOptions)
}

func (s *loopbackSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())

	for _, ln := range s.listeners {
		ln.Close()
	}
	s.wg.Wait()
}

// serve accepts a single connection on a loopback listener and hands it to handle.
func (s *loopbackSuite) serve(handle func(conn net.Conn)) uri.Address {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.listeners = append(s.listeners, ln)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		conn, err := ln.Accept()
		if err != nil {
			// Listener closed before anyone dialed.
			return
		}
		defer conn.Close()

		conn.SetDeadline(time.Now().Add(5 * time.Second))
		handle(conn)
	}()

	return uri.Address{
		Scheme: uri.SchemeHTTP,
		Host:   "127.0.0.1",
		Port:   ln.Addr().(*net.TCPAddr).Port,
		Path:   "/",
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func readRequest(conn net.Conn) (string, error) {
	b, err := iolib.NewUntilReader(conn).ReadUntil([]byte("\r\n\r\n"))
	return string(b), err
}

func (s *loopbackSuite) respondWith(raw string) func(conn net.Conn) {
	return func(conn net.Conn) {
		if _, err := readRequest(conn); !s.NoError(err) {
			return
		}
		_, err := io.WriteString(conn, raw)
		s.NoError(err)
	}
}

type ClientTestSuite struct {
	loopbackSuite
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TestFetch() {
	var got string
	addr := s.serve(func(conn net.Conn) {
		var err error
		got, err = readRequest(conn)
		s.NoError(err)

		_, err = io.WriteString(conn, ""+
			"HTTP/1.1 200 OK\r\n"+
			"Content-Type: text/html\r\n"+
			"\r\n"+
			"<p>hi</p>")
		s.NoError(err)
	})
	addr.Path = "/a/b"

	body, err := s.client.Fetch(context.Background(), addr)
	s.Require().NoError(err)
	s.Equal("<p>hi</p>", body)

	s.wg.Wait()
	s.Equal(""+
		"GET /a/b HTTP/1.1\r\n"+
		"Host: 127.0.0.1\r\n"+
		"Connection: close\r\n"+
		"User-Agent: WebBrowserEngineering/1.0\r\n"+
		"\r\n", got)
}

func (s *ClientTestSuite) TestRequestDecodable() {
	addr := s.serve(func(conn net.Conn) {
		var request http.Request
		dec := http.NewRequestDecoder(iolib.NewUntilReader(conn), http.DefaultDecodeOptions)
		if !s.NoError(dec.Decode(&request)) {
			return
		}

		s.Equal(http.RequestLine{Method: "GET", Target: "/index.html", Version: http.Version11}, request.RequestLine)
		s.Equal([]http.Field{
			{Name: []byte("Host"), Value: []byte("127.0.0.1")},
			{Name: []byte("Connection"), Value: []byte("close")},
			{Name: []byte("User-Agent"), Value: []byte("custom/2.0")},
		}, request.Headers)

		s.NoError(http.NewResponseEncoder(conn).Encode(http.Response{
			StatusLine: http.StatusLine{Version: http.Version11, StatusCode: 200, ReasonPhrase: "OK"},
		}))
	})
	addr.Path = "/index.html"

	opts := DefaultOptions
	opts.UserAgent = "custom/2.0"
	client := New(tcp.NewDialer(), s.logger, s.clock, opts)

	body, err := client.Fetch(context.Background(), addr)
	s.Require().NoError(err)
	s.Empty(body)
}

func (s *ClientTestSuite) TestExchange() {
	addr := s.serve(s.respondWith("" +
		"HTTP/1.1 404 Not Found Here\r\n" +
		"Content-Type: text/html\r\n" +
		"X-DUPLICATE: first\r\n" +
		"x-duplicate:   second  \r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"<h1>missing</h1>"))

	res, err := s.client.Exchange(context.Background(), addr)
	s.Require().NoError(err)

	s.Equal(http.Version11, res.Version)
	s.Equal(404, res.Status.Code)
	s.Equal("Not Found Here", res.Status.Explanation)

	for _, key := range []string{"Content-Type", "content-type"} {
		v, ok := res.Headers.Get(key)
		s.True(ok)
		s.Equal("text/html", v)
	}

	v, ok := res.Headers.Get("X-Duplicate")
	s.True(ok)
	s.Equal("second", v)

	// Content-Length is not honored; the body runs until close.
	s.Equal("<h1>missing</h1>", res.Body)
}

func (s *ClientTestSuite) TestUnsupportedResponse() {
	testcases := []struct {
		desc    string
		header  string
		wantErr error
	}{
		{
			desc:    "chunked transfer",
			header:  "Transfer-Encoding: chunked",
			wantErr: ErrTransferEncoding,
		},
		{
			desc:    "upper case name",
			header:  "TRANSFER-ENCODING: gzip, chunked",
			wantErr: ErrTransferEncoding,
		},
		{
			desc:    "compressed content",
			header:  "Content-Encoding: gzip",
			wantErr: ErrContentEncoding,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			closed := make(chan error, 1)
			addr := s.serve(func(conn net.Conn) {
				if _, err := readRequest(conn); !s.NoError(err) {
					return
				}

				// Headers only. The body would never arrive, so a client
				// reading it would block until the deadline.
				_, err := io.WriteString(conn, "HTTP/1.1 200 OK\r\n"+tc.header+"\r\n\r\n")
				s.NoError(err)

				_, err = io.Copy(io.Discard, conn)
				closed <- err
			})

			body, err := s.client.Fetch(context.Background(), addr)
			s.ErrorIs(err, tc.wantErr)
			s.ErrorIs(err, ErrUnsupportedResponse)
			s.Empty(body)

			// The client closed its side before the server gave up.
			s.False(isTimeout(<-closed))
		})
	}
}

func (s *ClientTestSuite) TestProtocolError() {
	testcases := []struct {
		desc     string
		response string
		wantErr  error
	}{
		{
			desc:     "status line without separators",
			response: "garbage\r\n\r\n",
			wantErr:  http.ErrMalformedStatusLine,
		},
		{
			desc:     "status code is not a number",
			response: "HTTP/1.1 OK OK\r\n\r\n",
			wantErr:  http.ErrMalformedStatusLine,
		},
		{
			desc:     "field line without colon",
			response: "HTTP/1.1 200 OK\r\nContent-Type text/html\r\n\r\nbody",
			wantErr:  http.ErrMalformedFieldLine,
		},
		{
			desc:     "closed inside header section",
			response: "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n",
			wantErr:  http.ErrIncompleteMessage,
		},
		{
			desc:     "closed without response",
			response: "",
			wantErr:  http.ErrIncompleteMessage,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			addr := s.serve(s.respondWith(tc.response))

			body, err := s.client.Fetch(context.Background(), addr)
			s.ErrorIs(err, tc.wantErr)
			s.ErrorIs(err, http.ErrProtocol)
			s.NotErrorIs(err, ErrConnection)
			s.Empty(body)
		})
	}
}

func (s *ClientTestSuite) TestInvalidUTF8() {
	addr := s.serve(s.respondWith("HTTP/1.1 200 OK\r\n\r\n\xffhi"))

	body, err := s.client.Fetch(context.Background(), addr)
	s.Require().NoError(err)
	s.Equal("�hi", body)
}

func (s *ClientTestSuite) TestConnectionRefused() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	s.Require().NoError(ln.Close())

	addr := uri.Address{Scheme: uri.SchemeHTTP, Host: "127.0.0.1", Port: port, Path: "/"}

	body, err := s.client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.Empty(body)
}

func (s *ClientTestSuite) TestMalformedAddress() {
	body, err := s.client.Fetch(context.Background(), uri.Address{Scheme: "ftp", Host: "x", Port: 21, Path: "/"})
	s.ErrorIs(err, uri.ErrMalformedURL)
	s.Empty(body)
}

func (s *ClientTestSuite) TestTimeout() {
	addr := s.serve(func(conn net.Conn) {
		if _, err := readRequest(conn); !s.NoError(err) {
			return
		}
		// Never respond. Wait for the client to give up.
		io.Copy(io.Discard, conn)
	})

	opts := DefaultOptions
	opts.Timeout.Exchange = 100 * time.Millisecond
	client := New(tcp.NewDialer(), s.logger, s.clock, opts)

	body, err := client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.Empty(body)

	s.True(isTimeout(err))
}

func (s *ClientTestSuite) TestTimeoutUsesClock() {
	addr := s.serve(func(conn net.Conn) {
		io.Copy(io.Discard, conn)
	})

	// Mock time starts at the epoch, so the deadline is long gone.
	opts := DefaultOptions
	opts.Timeout.Exchange = time.Second
	client := New(tcp.NewDialer(), s.logger, clock.NewMock(), opts)

	body, err := client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.Empty(body)
}

type HTTPSClientTestSuite struct {
	loopbackSuite

	cert  cryptotls.Certificate
	roots *x509.CertPool
}

func TestHTTPSClientTestSuite(t *testing.T) {
	suite.Run(t, new(HTTPSClientTestSuite))
}

func (s *HTTPSClientTestSuite) SetupTest() {
	s.loopbackSuite.SetupTest()

	var err error
	s.cert, s.roots, err = selfSignedCert("127.0.0.1")
	s.Require().NoError(err)
}

func (s *HTTPSClientTestSuite) serveTLS(handle func(conn net.Conn)) uri.Address {
	return s.serveTLSRaw(func(tlsConn *cryptotls.Conn, _ net.Conn) {
		defer tlsConn.Close()

		handle(tlsConn)
	})
}

// serveTLSRaw hands over the raw connection as well. Returning without closing
// tlsConn drops the TCP connection without close_notify.
func (s *HTTPSClientTestSuite) serveTLSRaw(handle func(tlsConn *cryptotls.Conn, raw net.Conn)) uri.Address {
	addr := s.serve(func(conn net.Conn) {
		tlsConn := cryptotls.Server(conn, &cryptotls.Config{Certificates: []cryptotls.Certificate{s.cert}})
		if err := tlsConn.Handshake(); err != nil {
			// Expected when the client refuses the certificate.
			return
		}

		handle(tlsConn, conn)
	})
	addr.Scheme = uri.SchemeHTTPS

	return addr
}

func (s *HTTPSClientTestSuite) TestFetch() {
	addr := s.serveTLS(s.respondWith("HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<b>secure</b>"))

	s.client.secureDialer = &trustingDialer{underlying: tcp.NewDialer(), roots: s.roots}

	body, err := s.client.Fetch(context.Background(), addr)
	s.Require().NoError(err)
	s.Equal("<b>secure</b>", body)
}

func (s *HTTPSClientTestSuite) TestCloseWithoutCloseNotify() {
	addr := s.serveTLSRaw(func(tlsConn *cryptotls.Conn, _ net.Conn) {
		if _, err := readRequest(tlsConn); !s.NoError(err) {
			return
		}
		_, err := io.WriteString(tlsConn, "HTTP/1.1 200 OK\r\n\r\n<p>full</p>")
		s.NoError(err)
	})

	s.client.secureDialer = &trustingDialer{underlying: tcp.NewDialer(), roots: s.roots}

	body, err := s.client.Fetch(context.Background(), addr)
	s.Require().NoError(err)
	s.Equal("<p>full</p>", body)
}

func (s *HTTPSClientTestSuite) TestTruncatedRecord() {
	addr := s.serveTLSRaw(func(tlsConn *cryptotls.Conn, raw net.Conn) {
		if _, err := readRequest(tlsConn); !s.NoError(err) {
			return
		}
		_, err := io.WriteString(tlsConn, "HTTP/1.1 200 OK\r\n\r\n")
		s.NoError(err)

		// Application data record header announcing 64 bytes, followed by 8.
		_, err = raw.Write([]byte{0x17, 0x03, 0x03, 0x00, 0x40, 1, 2, 3, 4, 5, 6, 7, 8})
		s.NoError(err)
	})

	s.client.secureDialer = &trustingDialer{underlying: tcp.NewDialer(), roots: s.roots}

	body, err := s.client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.Empty(body)
}

func (s *HTTPSClientTestSuite) TestUntrustedCertificate() {
	addr := s.serveTLS(s.respondWith("HTTP/1.1 200 OK\r\n\r\nnever seen"))

	body, err := s.client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.Empty(body)

	var unknownAuthority x509.UnknownAuthorityError
	s.ErrorAs(err, &unknownAuthority)
}

func (s *HTTPSClientTestSuite) TestPlaintextServer() {
	// No fallback to plaintext when the peer doesn't speak TLS.
	addr := s.serve(func(conn net.Conn) {
		io.WriteString(conn, "HTTP/1.1 200 OK\r\n\r\nplain")
	})
	addr.Scheme = uri.SchemeHTTPS

	body, err := s.client.Fetch(context.Background(), addr)
	s.ErrorIs(err, ErrConnection)
	s.Empty(body)
}

// trustingDialer trusts roots instead of the platform store.
type trustingDialer struct {
	underlying transport.ConnDialer
	roots      *x509.CertPool
}

func (d *trustingDialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	conn, err := d.underlying.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := cryptotls.Client(conn, &cryptotls.Config{ServerName: addr.Host, RootCAs: d.roots})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return tlsConn, nil
}

func selfSignedCert(host string) (cryptotls.Certificate, *x509.CertPool, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return cryptotls.Certificate{}, nil, err
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"web-browser test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP(host)},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return cryptotls.Certificate{}, nil, err
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return cryptotls.Certificate{}, nil, err
	}

	roots := x509.NewCertPool()
	roots.AddCert(leaf)

	return cryptotls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, roots, nil
}
