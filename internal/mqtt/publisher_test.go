package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/ezetrol-bridge/internal/config"
	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/fetcher"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

// ---- fakes ----

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	connected    bool
	pubs         []published
	subs         []string
	handler      mqtt.MessageHandler
	disconnected bool
	pubErr       error
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Connect() mqtt.Token {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return doneToken{}
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	f.connected = false
	f.disconnected = true
	f.mu.Unlock()
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body string
	switch v := payload.(type) {
	case string:
		body = v
	case []byte:
		body = string(v)
	}
	f.pubs = append(f.pubs, published{topic, qos, retained, body})
	return doneToken{err: f.pubErr}
}

func (f *fakeClient) Subscribe(topic string, _ byte, h mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, topic)
	f.handler = h
	return doneToken{}
}

func (f *fakeClient) published() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.pubs...)
}

type fakeRefresher struct {
	calls chan struct{}
}

func (r *fakeRefresher) RequestRefresh(context.Context) (poller.State, error) {
	r.calls <- struct{}{}
	return poller.State{}, nil
}

func newTestPublisher(c *fakeClient) *Publisher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newPublisher(c, config.MQTTConfig{TopicPrefix: "pool", QoS: 1}, logger)
}

func goodState() poller.State {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return poller.State{
		DeviceID:      "pool",
		Snapshot:      decoder.Snapshot{Chlorine: "0.52", PH: "7.21", Temperature: "27.4"},
		Success:       true,
		Initialized:   true,
		UpdatedAt:     at,
		LastSuccessAt: at,
	}
}

// ---- tests ----

func TestNewTopics(t *testing.T) {
	tp := NewTopics("ezetrol/pool")
	if tp.State != "ezetrol/pool/state" || tp.Availability != "ezetrol/pool/availability" || tp.Refresh != "ezetrol/pool/refresh" {
		t.Fatalf("topics: %+v", tp)
	}
}

func TestNewStatePayload_Available(t *testing.T) {
	p := NewStatePayload(goodState())

	if !p.Available || p.Error != "" {
		t.Fatalf("payload: %+v", p)
	}
	if p.Chlorine != "0.52" || p.PH != "7.21" || p.Temperature != "27.4" {
		t.Fatalf("values: %+v", p)
	}
	if p.Units["chlorine"] != "mg/l" || p.Units["temperature"] != "°C" {
		t.Fatalf("units: %v", p.Units)
	}
	if p.LastSuccess == nil {
		t.Fatalf("last success missing")
	}
}

func TestNewStatePayload_Unavailable(t *testing.T) {
	s := poller.State{
		DeviceID:    "pool",
		Snapshot:    decoder.Empty(),
		Initialized: true,
		Err:         &fetcher.Error{Kind: fetcher.KindTimeout, Err: context.DeadlineExceeded},
	}
	p := NewStatePayload(s)

	if p.Available || p.Error == "" {
		t.Fatalf("payload: %+v", p)
	}
	if p.Chlorine != decoder.NotFound || p.LastSuccess != nil {
		t.Fatalf("payload: %+v", p)
	}
}

func TestPublisher_Updated(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)

	p.Updated(goodState())

	pubs := c.published()
	if len(pubs) != 2 {
		t.Fatalf("publishes: %+v", pubs)
	}
	if pubs[0].topic != "pool/state" || !pubs[0].retained || pubs[0].qos != 1 {
		t.Fatalf("state publish: %+v", pubs[0])
	}
	var got StatePayload
	if err := json.Unmarshal([]byte(pubs[0].payload), &got); err != nil {
		t.Fatalf("state json: %v", err)
	}
	if !got.Available || got.PH != "7.21" {
		t.Fatalf("state: %+v", got)
	}
	if pubs[1] != (published{"pool/availability", 1, true, Online}) {
		t.Fatalf("availability publish: %+v", pubs[1])
	}
}

func TestPublisher_Unavailable(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)

	s := goodState()
	s.Success = false
	s.Err = errors.New("boom")
	p.Unavailable(s)

	pubs := c.published()
	if len(pubs) != 2 || pubs[1].payload != Offline {
		t.Fatalf("publishes: %+v", pubs)
	}
	var got StatePayload
	if err := json.Unmarshal([]byte(pubs[0].payload), &got); err != nil {
		t.Fatalf("state json: %v", err)
	}
	if got.Available || got.Error != "boom" || got.PH != "7.21" {
		t.Fatalf("state: %+v", got)
	}
}

func TestPublisher_NotConnectedSkips(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)

	p.Updated(goodState())
	if n := len(c.published()); n != 0 {
		t.Fatalf("published while disconnected: %d", n)
	}
}

func TestPublisher_PublishErrorStopsAvailability(t *testing.T) {
	c := &fakeClient{connected: true, pubErr: errors.New("broker")}
	p := newTestPublisher(c)

	p.Updated(goodState())
	if n := len(c.published()); n != 1 {
		t.Fatalf("publishes after failure: %d", n)
	}
}

func TestPublisher_RefreshTopic(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)
	r := &fakeRefresher{calls: make(chan struct{}, 1)}

	if err := p.Connect(context.Background(), r); err != nil {
		t.Fatalf("Connect err=%v", err)
	}
	p.onConnect(c)

	if len(c.subs) != 1 || c.subs[0] != "pool/refresh" {
		t.Fatalf("subscriptions: %v", c.subs)
	}

	c.handler(c, nil)
	select {
	case <-r.calls:
	case <-time.After(time.Second):
		t.Fatalf("refresh not requested")
	}
}

func TestPublisher_Disconnect(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)
	r := &fakeRefresher{calls: make(chan struct{}, 1)}
	if err := p.Connect(context.Background(), r); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	p.Disconnect()
	p.Disconnect()

	pubs := c.published()
	if len(pubs) != 1 || pubs[0] != (published{"pool/availability", 1, true, Offline}) {
		t.Fatalf("publishes: %+v", pubs)
	}
	if !c.disconnected {
		t.Fatalf("client not disconnected")
	}

	// refreshes after shutdown are dropped
	p.onRefresh(c, nil)
	select {
	case <-r.calls:
		t.Fatalf("refresh after disconnect")
	case <-time.After(50 * time.Millisecond):
	}

	if err := p.Connect(context.Background(), r); !errors.Is(err, ErrStopped) {
		t.Fatalf("Connect after stop: %v", err)
	}
}
