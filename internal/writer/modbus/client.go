// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single TCP connection to one Modbus endpoint.
// It serializes requests because it mutates SlaveId per write.
// A dropped connection is re-dialed by the handler on the next request.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient connects once (fail fast at startup).
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes holding registers (FC 16).
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), PackRegisters(regs))
	return err
}

// PackRegisters lays registers out in Modbus memory order (big-endian).
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
