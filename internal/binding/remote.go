package binding

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"

	http3 "github.com/quic-go/quic-go/http3"

	"github.com/vanta-lang/vanta/internal/diagnostic"
)

// RemoteDiagnosticSink streams every Warn call to a connected tool (an
// editor, a build-watch client) over HTTP/3, as an optional addition to
// (or replacement of) an in-process diagnostic.Sink. Adapted from the
// teacher's netstack.HTTP3Server wrapper; where that type serves a
// general request handler, this one serves exactly one endpoint that
// appends each posted warning line to a broadcast buffer subsequent
// long-poll requests drain.
type RemoteDiagnosticSink struct {
	srv  *http3.Server
	pc   net.PacketConn
	addr string

	mu      sync.Mutex
	lines   []string
	waiters []chan struct{}

	fallback diagnostic.Sink
}

// NewRemoteDiagnosticSink constructs (without yet starting) a sink that
// will serve warnings over HTTP/3 at addr, falling back to writing
// through fallback as well (nil is treated as diagnostic.NopSink) so
// warnings are never lost if no client is currently polling.
func NewRemoteDiagnosticSink(addr string, tlsCfg *tls.Config, fallback diagnostic.Sink) *RemoteDiagnosticSink {
	if fallback == nil {
		fallback = diagnostic.NopSink
	}

	s := &RemoteDiagnosticSink{addr: addr, fallback: fallback}

	mux := http.NewServeMux()
	mux.HandleFunc("/warnings", s.handleWarnings)

	s.srv = &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: mux}

	return s
}

// Start begins serving HTTP/3 on addr (an ephemeral UDP port if addr ends
// in ":0") and returns the actual bound address.
func (s *RemoteDiagnosticSink) Start() (string, error) {
	var err error

	s.pc, err = net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", err
	}

	go func() {
		_ = s.srv.Serve(s.pc)
	}()

	return s.pc.LocalAddr().String(), nil
}

// Stop closes the listening socket and the underlying server.
func (s *RemoteDiagnosticSink) Stop() error {
	_ = s.srv.Close()

	if s.pc != nil {
		return s.pc.Close()
	}

	return nil
}

// Warn implements diagnostic.Sink: it formats the line, appends it to the
// broadcast buffer, wakes any long-polling client, and forwards to the
// fallback sink.
func (s *RemoteDiagnosticSink) Warn(format string, args ...any) {
	line := fmt.Sprintf(format, args...)

	s.mu.Lock()
	s.lines = append(s.lines, line)
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}

	s.fallback.Warn("%s", line)
}

// handleWarnings serves GET /warnings?since=N: if new lines exist past
// index N, they're returned immediately; otherwise the request blocks
// (long-polls) until a new Warn call arrives or the request's context is
// canceled.
func (s *RemoteDiagnosticSink) handleWarnings(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		fmt.Sscanf(v, "%d", &since)
	}

	s.mu.Lock()
	if since < len(s.lines) {
		out := s.lines[since:]
		s.mu.Unlock()
		writeLines(w, out)

		return
	}

	ch := make(chan struct{})
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		s.mu.Lock()
		out := s.lines[since:]
		s.mu.Unlock()
		writeLines(w, out)
	case <-r.Context().Done():
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeLines(w http.ResponseWriter, lines []string) {
	var buf bytes.Buffer

	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// RemoteDiagnosticClient polls a RemoteDiagnosticSink's /warnings endpoint
// over HTTP/3, the client side the teacher's HTTP3Client constructs the
// same way for its own compiler-service tooling.
type RemoteDiagnosticClient struct {
	base string
	cl   *http.Client
}

// NewRemoteDiagnosticClient builds a client for the sink listening at
// addr.
func NewRemoteDiagnosticClient(addr string, tlsCfg *tls.Config) *RemoteDiagnosticClient {
	tr := &http3.Transport{TLSClientConfig: tlsCfg}

	return &RemoteDiagnosticClient{
		base: "https://" + addr,
		cl:   &http.Client{Transport: tr},
	}
}

// Close releases the client's HTTP/3 transport.
func (c *RemoteDiagnosticClient) Close() error {
	if tr, ok := c.cl.Transport.(*http3.Transport); ok {
		return tr.Close()
	}

	return nil
}

// Poll fetches warnings at or after index since, blocking on the server
// side until at least one is available or ctx is canceled.
func (c *RemoteDiagnosticClient) Poll(ctx context.Context, since int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/warnings?since=%d", c.base, since), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	var lines []string
	for _, l := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(l) > 0 {
			lines = append(lines, string(l))
		}
	}

	return lines, nil
}
