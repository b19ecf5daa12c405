// Command tcpcat connects to host:port and relays terminal lines to the
// socket and socket bytes to the terminal. An empty line ends the session.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/nczempin/tcpcat/config"
	"github.com/nczempin/tcpcat/relay"
	"github.com/nczempin/tcpcat/transport"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		hclog.Default().Warn("ignoring unreadable .env", "error", err)
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Parse("tcpcat", args, os.LookupEnv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			hclog.New(&hclog.LoggerOptions{Name: "tcpcat", Output: stderr}).Error(usageErr.Error())
		}
		return 2
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:   "tcpcat",
		Level:  cfg.LogLevel,
		Output: stderr,
		Color:  hclog.AutoColor,
	}).With("session", uuid.NewString())

	conn, err := transport.Connect(context.Background(), cfg.Endpoint,
		transport.WithTimeout(cfg.Timeout),
		transport.WithBackend(cfg.Backend),
		transport.WithProgress(stdout),
		transport.WithLogger(log),
	)
	if err != nil {
		log.Error("could not connect", "endpoint", cfg.Endpoint.String(), "error", err)
		return 1
	}

	if err := relay.New(conn, stdin, stdout, stdout, log).Run(); err != nil {
		log.Error("relay failed", "error", err)
		return 1
	}
	return 0
}
