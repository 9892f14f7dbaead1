// cmd/ezetrol-bridge/run.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/ezetrol-bridge/internal/config"
	"github.com/tamzrod/ezetrol-bridge/internal/httpapi"
	"github.com/tamzrod/ezetrol-bridge/internal/logging"
	"github.com/tamzrod/ezetrol-bridge/internal/metrics"
	"github.com/tamzrod/ezetrol-bridge/internal/mqtt"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
	"github.com/tamzrod/ezetrol-bridge/internal/status"
	"github.com/tamzrod/ezetrol-bridge/internal/writer"
)

// staleCycles is how many missed intervals turn a healthy status stale.
const staleCycles = 3

func run(ctx context.Context, path, levelOverride string) int {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		return 1
	}
	if levelOverride != "" {
		cfg.Bridge.LogLevel = levelOverride
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		return 1
	}
	config.Normalize(cfg)

	b := cfg.Bridge
	level, _ := config.ParseLogLevel(b.LogLevel)
	logger := logging.New(b.Env, level, version)
	slog.SetDefault(logger)

	deviceID := b.Device.ID()
	logger.Info("starting", "device", deviceID, "host", b.Device.Host, "interval", b.Device.Interval())

	// --------------------
	// Listeners
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mc, err := metrics.New(reg, deviceID)
	if err != nil {
		logger.Error("metrics setup failed", "err", err)
		return 1
	}
	opts := []poller.Option{
		poller.WithLogger(logger),
		poller.WithListener(mc),
	}

	// ---- modbus delivery (optional) ----
	var tracker *status.Tracker

	plan, modbusOn, err := writer.BuildPlan(b)
	if err != nil {
		logger.Error("writer plan failed", "err", err)
		return 1
	}
	if modbusOn {
		cli, err := writer.BuildEndpointClient(plan, b.Modbus)
		if err != nil {
			logger.Error("modbus connect failed", "endpoint", plan.Endpoint, "err", err)
			return 1
		}
		defer cli.Close()

		if sw, ok := writer.NewDeviceStatusWriter(plan, cli); ok {
			tracker = status.NewTracker(sw, staleCycles*b.Device.Interval(), logger)
			tracker.Start()
			defer tracker.Stop()
			opts = append(opts, poller.WithListener(tracker))
		}
		if mw, ok := writer.NewMetricWriter(plan, cli, logger); ok {
			opts = append(opts, poller.WithListener(mw))
		}
	}

	// ---- mqtt (optional) ----
	var pub *mqtt.Publisher
	if b.MQTT.Enabled() {
		pub = mqtt.NewPublisher(b.MQTT, logger)
		defer pub.Disconnect()
		opts = append(opts, poller.WithListener(pub))
	}

	// --------------------
	// Coordinator
	// --------------------

	coord, err := poller.Build(b.Device, opts...)
	if err != nil {
		logger.Error("poller build failed", "err", err)
		return 1
	}
	defer coord.Close()

	if err := coord.FirstRefresh(ctx); err != nil {
		logger.Error("first refresh failed", "device", deviceID, "err", err)
		return 1
	}

	// --------------------
	// Bring consumers online
	// --------------------

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		coord.Run(gctx)
		return nil
	})

	if tracker != nil {
		g.Go(func() error {
			tracker.Run(gctx)
			return nil
		})
	}

	if pub != nil {
		g.Go(func() error {
			if err := pub.Connect(gctx, coord); err != nil {
				logger.Warn("mqtt connect abandoned", "err", err)
				return nil
			}
			pub.PublishState(coord.State())
			return nil
		})
	}

	if b.HTTP.Listen != "" {
		srv := httpapi.New(b.HTTP.Listen, coord, reg, logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	err = g.Wait()

	// Coordinator first: no listener is called after this returns.
	coord.Close()

	if err != nil {
		logger.Error("bridge stopped", "err", err)
		return 1
	}
	logger.Info("bridge stopped")
	return 0
}
