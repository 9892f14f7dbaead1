// internal/fetcher/fetcher.go
package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	// DataPath is the device telemetry document.
	DataPath = "/ajax_data.json"

	// DefaultTimeout is the hard deadline of one fetch.
	DefaultTimeout = 10 * time.Second

	bom = "\uFEFF"
)

// Endpoint is immutable after construction.
type Endpoint struct {
	Host    string
	Path    string
	Timeout time.Duration
}

// NewEndpoint returns the telemetry endpoint of a device.
func NewEndpoint(host string) Endpoint {
	return Endpoint{
		Host:    host,
		Path:    DataPath,
		Timeout: DefaultTimeout,
	}
}

// URL returns http://{host}{path}.
func (e Endpoint) URL() string {
	return "http://" + e.Host + e.Path
}

// Client fetches the raw payload of one device.
// One GET per call. No retries.
type Client struct {
	ep   Endpoint
	http *http.Client
}

// New creates a Client. A zero Timeout falls back to DefaultTimeout.
func New(ep Endpoint) (*Client, error) {
	if ep.Host == "" {
		return nil, errors.New("fetcher: host required")
	}
	if ep.Path == "" {
		ep.Path = DataPath
	}
	if ep.Timeout <= 0 {
		ep.Timeout = DefaultTimeout
	}
	return &Client{
		ep: ep,
		// The deadline lives on the request context; the transport is shared.
		http: &http.Client{},
	}, nil
}

// Endpoint returns the endpoint the client was built for.
func (c *Client) Endpoint() Endpoint { return c.ep }

// Fetch performs exactly one GET and returns the body as UTF-8 text,
// with a leading byte-order mark removed.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.ep.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ep.URL(), nil)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &Error{Kind: KindBadStatus, StatusCode: resp.StatusCode}
	}

	// The device serves JSON as text; honour whatever charset it declares.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", classify(ctx, err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", classify(ctx, err)
	}

	return strings.TrimPrefix(string(data), bom), nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}
