package span

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/cleanroom-dev/cleanroom/pkg/backplane/ca"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// ingestPath is the single endpoint service containers push spans to,
// following the teacher's aggregation server's path-per-concern layout
// (one route; a POST or PUT appends the batch it carries).
const ingestPath = "/v1/spans"

// Server is the loopback HTTP(S) listener service containers push spans to
// during a run. It mirrors the shape of sonobuoy's aggregation.Server
// (BindAddr, stopCh/readyCh, Start/Stop/WaitUntilReady) but serves exactly
// one route and requires a client certificate from the run's CA, since
// (unlike sonobuoy) Cleanroom containers are untrusted-by-default.
type Server struct {
	BindAddr  string
	Authority *ca.Authority
	Collector *Collector

	httpServer *http.Server
	stopCh     chan struct{}
	readyCh    chan struct{}
}

// NewServer builds a Server bound to bindAddr (e.g. "127.0.0.1:0"),
// appending every span it receives to collector.
func NewServer(bindAddr string, authority *ca.Authority, collector *Collector) *Server {
	return &Server{
		BindAddr:  bindAddr,
		Authority: authority,
		Collector: collector,
		stopCh:    make(chan struct{}),
		readyCh:   make(chan struct{}, 1),
	}
}

// Start listens on s.BindAddr with TLS configured by s.Authority and blocks
// until Stop is called or the listener errors. Addr() is safe to call once
// WaitUntilReady returns.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc(ingestPath, s.handleIngest).Methods(http.MethodPost, http.MethodPut)

	tlsConfig, err := s.Authority.MakeServerConfig(hostOf(s.BindAddr))
	if err != nil {
		return errlog.Wrap(errlog.Internal, err, "building span-ingest TLS config")
	}

	l, err := net.Listen("tcp", s.BindAddr)
	if err != nil {
		return errlog.Wrap(errlog.Io, err, "listening on %s", s.BindAddr)
	}
	tlsListener := tls.NewListener(l, tlsConfig)

	s.httpServer = &http.Server{Handler: router}
	s.BindAddr = l.Addr().String()

	logrus.WithField("addr", s.BindAddr).Debug("span ingest listening")

	done := make(chan error, 1)
	go func() { done <- s.httpServer.Serve(tlsListener) }()
	s.readyCh <- struct{}{}

	select {
	case <-s.stopCh:
		tlsListener.Close()
		<-done
		return nil
	case err := <-done:
		return err
	}
}

// WaitUntilReady blocks until Start's listener is accepting connections.
// Must be called exactly once per Start call.
func (s *Server) WaitUntilReady() {
	<-s.readyCh
}

// Stop shuts the server down.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.httpServer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Addr returns the address the server ended up bound to (useful when
// BindAddr was given as "host:0" and the OS picked a port).
func (s *Server) Addr() string {
	return s.BindAddr
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var batch []Data
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid span payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	for _, d := range batch {
		s.Collector.Collect(d)
	}
	w.WriteHeader(http.StatusAccepted)
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "127.0.0.1"
	}
	return host
}
