package transport

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultConnectTimeout bounds the connect handshake when no timeout is given
const DefaultConnectTimeout = 10 * time.Second

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type Options struct {
	Timeout  time.Duration
	Backend  Backend
	Progress io.Writer
	Logger   hclog.Logger
	Resolver Resolver
}

type Option func(opts *Options)

func newOptions(options ...Option) *Options {
	opts := &Options{
		Timeout:  DefaultConnectTimeout,
		Backend:  BackendNet,
		Progress: io.Discard,
		Logger:   hclog.NewNullLogger(),
		Resolver: net.DefaultResolver,
	}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// WithTimeout bounds the connect handshake. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = d
	}
}

func WithBackend(b Backend) Option {
	return func(opts *Options) {
		opts.Backend = b
	}
}

// WithProgress sets where the connecting/connected messages are printed.
func WithProgress(w io.Writer) Option {
	return func(opts *Options) {
		if w != nil {
			opts.Progress = w
		}
	}
}

func WithLogger(l hclog.Logger) Option {
	return func(opts *Options) {
		if l != nil {
			opts.Logger = l
		}
	}
}

func WithResolver(r Resolver) Option {
	return func(opts *Options) {
		if r != nil {
			opts.Resolver = r
		}
	}
}
