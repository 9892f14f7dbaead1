// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/ezetrol-bridge/internal/config"
	"github.com/tamzrod/ezetrol-bridge/internal/fetcher"
)

// Build constructs a Coordinator for one device and wires its HTTP fetcher.
// Assumes config has already passed Validate and Normalize.
// Nothing is fetched here; call FirstRefresh.
func Build(d cfg.DeviceConfig, opts ...Option) (*Coordinator, error) {
	ep := fetcher.NewEndpoint(d.Host)
	if d.TimeoutMs > 0 {
		ep.Timeout = d.Timeout()
	}

	f, err := fetcher.New(ep)
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			DeviceID: d.ID(),
			Interval: d.Interval(),
		},
		f,
		opts...,
	)
}
