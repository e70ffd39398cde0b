package span

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/backplane/ca"
)

func TestServerHandleIngestRequiresClientCert(t *testing.T) {
	authority, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	collector := NewCollector()
	srv := NewServer("127.0.0.1:0", authority, collector)
	go srv.Start()
	srv.WaitUntilReady()
	defer srv.Stop()

	plainClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: authority.CACertPool()},
		},
	}
	_, err = plainClient.Get("https://" + srv.Addr() + ingestPath)
	if err == nil {
		t.Fatal("expected request without a client cert to fail the TLS handshake")
	}
}

func TestServerHandleIngestAcceptsBatch(t *testing.T) {
	authority, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	collector := NewCollector()
	srv := NewServer("127.0.0.1:0", authority, collector)
	go srv.Start()
	srv.WaitUntilReady()
	defer srv.Stop()

	clientCert, err := authority.ClientKeyPair("worker1.cleanroom.local")
	if err != nil {
		t.Fatalf("ClientKeyPair: %v", err)
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{*clientCert},
				RootCAs:      authority.CACertPool(),
			},
		},
	}

	batch := []Data{
		{TraceID: "t1", SpanID: "s1", Name: "a", ServiceName: "svc", Status: StatusOK},
		{TraceID: "t1", SpanID: "s2", Name: "b", ServiceName: "svc", Status: StatusError},
	}
	body, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	resp, err := httpClient.Post("https://"+srv.Addr()+ingestPath, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	deadline := time.Now().Add(2 * time.Second)
	for collector.Len() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	byTrace := collector.ByTraceID("t1")
	if len(byTrace) != 2 {
		t.Fatalf("ByTraceID(t1) = %d spans, want 2", len(byTrace))
	}
}

func TestServerHandleIngestRejectsMalformedBody(t *testing.T) {
	authority, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	collector := NewCollector()
	srv := NewServer("127.0.0.1:0", authority, collector)
	go srv.Start()
	srv.WaitUntilReady()
	defer srv.Stop()

	clientCert, err := authority.ClientKeyPair("worker1.cleanroom.local")
	if err != nil {
		t.Fatalf("ClientKeyPair: %v", err)
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{*clientCert},
				RootCAs:      authority.CACertPool(),
			},
		},
	}

	resp, err := httpClient.Post("https://"+srv.Addr()+ingestPath, "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
