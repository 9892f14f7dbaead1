// internal/fetcher/fetcher_test.go
package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func hostOf(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func newClient(t *testing.T, host string, timeout time.Duration) *Client {
	t.Helper()
	ep := NewEndpoint(host)
	ep.Timeout = timeout
	c, err := New(ep)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return c
}

func TestEndpointURL(t *testing.T) {
	ep := NewEndpoint("192.168.1.50")
	if got := ep.URL(); got != "http://192.168.1.50/ajax_data.json" {
		t.Fatalf("url: got %s", got)
	}
	if ep.Timeout != 10*time.Second {
		t.Fatalf("timeout: got %v", ep.Timeout)
	}
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := New(Endpoint{}); err == nil {
		t.Fatalf("expected error for empty host")
	}
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"d2":"2000;0.4"}`))
	}))
	defer ts.Close()

	c := newClient(t, hostOf(ts), time.Second)

	raw, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if raw != `{"d2":"2000;0.4"}` {
		t.Fatalf("payload: got %q", raw)
	}
	if gotPath != DataPath {
		t.Fatalf("path: got %s", gotPath)
	}
	if gotAccept != "application/json" {
		t.Fatalf("accept: got %q", gotAccept)
	}
}

func TestFetch_StripsByteOrderMark(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("\xEF\xBB\xBF{\"d2\":\"1\"}"))
	}))
	defer ts.Close()

	raw, err := newClient(t, hostOf(ts), time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if raw != `{"d2":"1"}` {
		t.Fatalf("payload: got %q", raw)
	}
}

func TestFetch_DeclaredCharset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte("{\"unit\":\"\xB0C\"}"))
	}))
	defer ts.Close()

	raw, err := newClient(t, hostOf(ts), time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if raw != `{"unit":"°C"}` {
		t.Fatalf("payload: got %q", raw)
	}
}

func TestFetch_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newClient(t, hostOf(ts), time.Second).Fetch(context.Background())

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != KindBadStatus || fe.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("got kind=%v status=%d", fe.Kind, fe.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// hang until the client gives up
		<-r.Context().Done()
	}))
	defer ts.Close()

	start := time.Now()
	_, err := newClient(t, hostOf(ts), 50*time.Millisecond).Fetch(context.Background())

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != KindTimeout {
		t.Fatalf("kind: got %v want timeout (err=%v)", fe.Kind, err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("deadline not enforced")
	}
}

func TestFetch_Transport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := hostOf(ts)
	ts.Close() // nothing listens any more

	_, err := newClient(t, host, time.Second).Fetch(context.Background())

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != KindTransport {
		t.Fatalf("kind: got %v want transport", fe.Kind)
	}
}

func TestFetch_CallerCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newClient(t, hostOf(ts), 5*time.Second).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}
