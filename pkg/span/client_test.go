package span

import (
	"testing"
	"time"

	"github.com/cleanroom-dev/cleanroom/pkg/backplane/ca"
)

func TestClientPushRoundTrip(t *testing.T) {
	authority, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	collector := NewCollector()
	srv := NewServer("127.0.0.1:0", authority, collector)

	go func() {
		if err := srv.Start(); err != nil {
			t.Logf("server exited: %v", err)
		}
	}()
	srv.WaitUntilReady()
	defer srv.Stop()

	clientCert, err := authority.ClientKeyPair("worker1.cleanroom.local")
	if err != nil {
		t.Fatalf("ClientKeyPair: %v", err)
	}

	client := NewClient("https://"+srv.Addr()+ingestPath, authority, clientCert)

	batch := []Data{
		{
			TraceID:     "trace-1",
			SpanID:      "span-1",
			Name:        "handle-request",
			ServiceName: "api",
			StartTime:   time.Now(),
			EndTime:     time.Now().Add(10 * time.Millisecond),
			Status:      StatusOK,
		},
	}

	if err := client.Push(batch); err != nil {
		t.Fatalf("Push: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for collector.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	got := collector.Snapshot()
	if len(got) != 1 {
		t.Fatalf("collector has %d spans, want 1", len(got))
	}
	if got[0].TraceID != "trace-1" || got[0].Status != StatusOK {
		t.Errorf("unexpected span: %+v", got[0])
	}
}

func TestClientPushRejectsUntrustedCert(t *testing.T) {
	authorityA, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	authorityB, err := ca.NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	collector := NewCollector()
	srv := NewServer("127.0.0.1:0", authorityA, collector)
	go srv.Start()
	srv.WaitUntilReady()
	defer srv.Stop()

	foreignCert, err := authorityB.ClientKeyPair("worker1.cleanroom.local")
	if err != nil {
		t.Fatalf("ClientKeyPair: %v", err)
	}

	client := NewClient("https://"+srv.Addr()+ingestPath, authorityA, foreignCert)
	client.httpClient.MaxRetries = 1

	if err := client.Push([]Data{{TraceID: "t", SpanID: "s"}}); err == nil {
		t.Fatal("expected push with a foreign client cert to fail")
	}
}
