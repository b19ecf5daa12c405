// Package config assembles the client settings from command-line flags, the
// environment and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/nczempin/tcpcat/transport"
)

const (
	EnvTimeout  = "TCPCAT_TIMEOUT"
	EnvBackend  = "TCPCAT_IO"
	EnvLogLevel = "TCPCAT_LOG_LEVEL"

	DefaultTimeout  = "10s"
	DefaultLogLevel = "info"
)

// Config is everything main needs to connect and relay.
type Config struct {
	Endpoint transport.Endpoint
	Timeout  time.Duration
	Backend  transport.Backend
	LogLevel hclog.Level
}

// UsageError reports bad command-line input.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ParseTimeout turns a string such as "10s" into a duration of whole seconds.
// Trailing 's' characters are stripped and the rest must be an unsigned
// integer. Zero, which cannot bound a connect, and anything unparseable
// yield transport.DefaultConnectTimeout.
func ParseTimeout(s string) time.Duration {
	digits := strings.TrimRight(s, "s")
	digits = strings.TrimPrefix(digits, "+")

	secs, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || secs == 0 {
		return transport.DefaultConnectTimeout
	}

	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs) * time.Second
}

// LoadDotEnv reads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Parse builds a Config from args (without the program name). lookupEnv is
// usually os.LookupEnv.
func Parse(name string, args []string, lookupEnv func(string) (string, bool), output io.Writer) (*Config, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [--timeout 10s] [--io net|iouring|uring] [--log-level info] host port\n", name)
		flags.PrintDefaults()
	}

	timeout := envOr(lookupEnv, EnvTimeout, DefaultTimeout)
	flags.StringVar(&timeout, "timeout", timeout, "connect timeout in whole seconds, e.g. 5s")
	flags.StringVar(&timeout, "t", timeout, "shorthand for --timeout")

	backend := flags.String("io", envOr(lookupEnv, EnvBackend, string(transport.BackendNet)), "socket I/O backend: net, iouring or uring")
	logLevel := flags.String("log-level", envOr(lookupEnv, EnvLogLevel, DefaultLogLevel), "diagnostic level: trace, debug, info, warn, error")

	// options may follow the positional arguments
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		args = flags.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if len(positional) != 2 {
		flags.Usage()
		return nil, &UsageError{msg: fmt.Sprintf("expected host and port, got %d arguments", len(positional))}
	}

	port, err := strconv.ParseUint(positional[1], 10, 16)
	if err != nil {
		return nil, &UsageError{msg: fmt.Sprintf("invalid port %q: must be 0-65535", positional[1])}
	}

	b, err := transport.ParseBackend(*backend)
	if err != nil {
		return nil, &UsageError{msg: err.Error()}
	}

	level := hclog.LevelFromString(*logLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return &Config{
		Endpoint: transport.Endpoint{Host: positional[0], Port: uint16(port)},
		Timeout:  ParseTimeout(timeout),
		Backend:  b,
		LogLevel: level,
	}, nil
}

func envOr(lookupEnv func(string) (string, bool), key, def string) string {
	if v, ok := lookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
