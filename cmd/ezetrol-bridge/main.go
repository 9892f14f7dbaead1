// cmd/ezetrol-bridge/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/fetcher"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `ezetrol-bridge polls an Ezetrol Touch controller and republishes its readings.

Usage:
  ezetrol-bridge run <config> [--log-level=<level>]
  ezetrol-bridge probe <host> [--timeout=<ms>]
  ezetrol-bridge decode <file>
  ezetrol-bridge -h | --help
  ezetrol-bridge --version

Options:
  -h --help             Show this screen.
  --version             Show version.
  --log-level=<level>   Override the configured log level (debug|info|warn|error).
  --timeout=<ms>        Fetch timeout in milliseconds [default: 10000].
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dispatch(ctx, opts)
	stop()
	os.Exit(code)
}

func dispatch(ctx context.Context, opts docopt.Opts) int {
	switch {
	case flag(opts, "run"):
		path, _ := opts.String("<config>")
		return run(ctx, path, optString(opts, "--log-level"))
	case flag(opts, "probe"):
		host, _ := opts.String("<host>")
		return probe(ctx, host, optString(opts, "--timeout"))
	case flag(opts, "decode"):
		path, _ := opts.String("<file>")
		return decodeFile(path)
	}
	fmt.Fprint(os.Stderr, usage)
	return 2
}

// probe runs one fetch+decode against host and prints the snapshot.
func probe(ctx context.Context, host, timeoutMs string) int {
	ep := fetcher.NewEndpoint(host)
	if timeoutMs != "" {
		ms, err := strconv.Atoi(timeoutMs)
		if err != nil || ms <= 0 {
			fmt.Fprintf(os.Stderr, "invalid --timeout %q\n", timeoutMs)
			return 2
		}
		ep.Timeout = time.Duration(ms) * time.Millisecond
	}

	f, err := fetcher.New(ep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	raw, err := f.Fetch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printSnapshot(raw)
}

// decodeFile decodes a saved ajax_data.json payload.
func decodeFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printSnapshot(string(data))
}

func printSnapshot(raw string) int {
	snap, err := decoder.Decode(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func flag(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}

func optString(opts docopt.Opts, key string) string {
	v, _ := opts[key].(string)
	return v
}
