package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/ezetrol-bridge/internal/config"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

const publishTimeout = 5 * time.Second

var ErrStopped = errors.New("mqtt: publisher stopped")

// Refresher is the part of the coordinator the refresh topic drives.
type Refresher interface {
	RequestRefresh(ctx context.Context) (poller.State, error)
}

// Publisher mirrors coordinator outcomes to a broker and turns messages on
// the refresh topic into coalesced refreshes. It implements poller.Listener.
type Publisher struct {
	client mqtt.Client
	topics Topics
	qos    byte
	logger *slog.Logger

	mu        sync.RWMutex
	refresher Refresher
	ctx       context.Context
	cancel    context.CancelFunc

	stopOnce sync.Once
}

// NewPublisher builds the client. Nothing is dialed until Connect.
func NewPublisher(cfg config.MQTTConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := newPublisher(nil, cfg, logger)

	topics := p.topics
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetKeepAlive(30*time.Second).
		SetPingTimeout(10*time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetMaxReconnectInterval(60*time.Second).
		SetWill(topics.Availability, Offline, p.qos, true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(p.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func newPublisher(client mqtt.Client, cfg config.MQTTConfig, logger *slog.Logger) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		client: client,
		topics: NewTopics(cfg.TopicPrefix),
		qos:    byte(cfg.QoS),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Publisher) Topics() Topics { return p.topics }

// Connect waits for the first broker connection. r receives refresh
// requests; it may be nil to ignore the refresh topic.
func (p *Publisher) Connect(ctx context.Context, r Refresher) error {
	p.mu.Lock()
	p.refresher = r
	stopped := p.ctx.Err() != nil
	p.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return ErrStopped
		default:
		}
	}
}

// Disconnect marks the bridge offline and closes the connection.
// Safe to call more than once.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() {
		p.cancel()
		if p.client.IsConnected() {
			if err := p.publish(p.topics.Availability, Offline); err != nil {
				p.logger.Warn("mqtt offline publish failed", "err", err)
			}
		}
		p.client.Disconnect(250)
		p.logger.Info("mqtt disconnected")
	})
}

// Updated implements poller.Listener.
func (p *Publisher) Updated(s poller.State) { p.PublishState(s) }

// Unavailable implements poller.Listener.
func (p *Publisher) Unavailable(s poller.State) { p.PublishState(s) }

// PublishState sends the retained state document and availability.
// It is a no-op while the broker is unreachable.
func (p *Publisher) PublishState(s poller.State) {
	if !p.client.IsConnected() {
		p.logger.Debug("mqtt not connected, state not published", "device", s.DeviceID)
		return
	}

	data, err := json.Marshal(NewStatePayload(s))
	if err != nil {
		p.logger.Error("mqtt marshal state", "err", err)
		return
	}
	if err := p.publish(p.topics.State, data); err != nil {
		p.logger.Error("mqtt state publish failed", "topic", p.topics.State, "err", err)
		return
	}
	if err := p.publish(p.topics.Availability, availability(s)); err != nil {
		p.logger.Error("mqtt availability publish failed", "topic", p.topics.Availability, "err", err)
		return
	}
	p.logger.Debug("mqtt state published", "topic", p.topics.State, "available", s.Available())
}

// publish sends a retained message and waits for the broker.
func (p *Publisher) publish(topic string, payload interface{}) error {
	token := p.client.Publish(topic, p.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	return token.Error()
}

func (p *Publisher) onConnect(c mqtt.Client) {
	p.logger.Info("mqtt connected", "refresh_topic", p.topics.Refresh)

	token := c.Subscribe(p.topics.Refresh, p.qos, p.onRefresh)
	if token.Wait() && token.Error() != nil {
		p.logger.Error("mqtt subscribe failed", "topic", p.topics.Refresh, "err", token.Error())
	}
}

// onRefresh runs on the client's goroutine; the refresh itself does not.
func (p *Publisher) onRefresh(_ mqtt.Client, _ mqtt.Message) {
	p.mu.RLock()
	r, ctx := p.refresher, p.ctx
	p.mu.RUnlock()
	if r == nil || ctx.Err() != nil {
		return
	}

	go func() {
		s, err := r.RequestRefresh(ctx)
		if err != nil {
			p.logger.Debug("mqtt refresh dropped", "err", err)
			return
		}
		p.logger.Info("mqtt refresh served", "available", s.Available())
	}()
}
