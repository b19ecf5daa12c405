package config

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/nczempin/tcpcat/transport"
)

func noEnv(string) (string, bool) {
	return "", false
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseTimeout(t *testing.T) {
	tests := map[string]time.Duration{
		"10s":  10 * time.Second,
		"2s":   2 * time.Second,
		"7":    7 * time.Second,
		"0s":   10 * time.Second,
		"0":    10 * time.Second,
		"3sss": 3 * time.Second,
		"+4s":  4 * time.Second,
		"abc":  10 * time.Second,
		"-5s":  10 * time.Second,
		"1.5s": 10 * time.Second,
		"5m":   10 * time.Second,
		" 5s":  10 * time.Second,
		"":     10 * time.Second,
		"s":    10 * time.Second,
	}

	for in, want := range tests {
		if got := ParseTimeout(in); got != want {
			t.Errorf("ParseTimeout(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseTimeout_Clamped(t *testing.T) {
	if got := ParseTimeout("18446744073709551615s"); got != time.Duration(math.MaxInt64) {
		t.Errorf("Expected clamped duration, got %v", got)
	}

	// does not fit in 64 bits at all
	if got := ParseTimeout("99999999999999999999s"); got != 10*time.Second {
		t.Errorf("Expected default timeout, got %v", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("tcpcat", []string{"127.0.0.1", "9000"}, noEnv, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Endpoint != (transport.Endpoint{Host: "127.0.0.1", Port: 9000}) {
		t.Errorf("Unexpected endpoint %+v", cfg.Endpoint)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.Backend != transport.BackendNet {
		t.Errorf("Expected net backend, got %q", cfg.Backend)
	}
	if cfg.LogLevel != hclog.Info {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse("tcpcat", []string{"--timeout=3s", "--io", "uring", "--log-level", "debug", "example.com", "80"}, noEnv, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Timeout != 3*time.Second {
		t.Errorf("Expected 3s, got %v", cfg.Timeout)
	}
	if cfg.Backend != transport.BackendURing {
		t.Errorf("Expected uring backend, got %q", cfg.Backend)
	}
	if cfg.LogLevel != hclog.Debug {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel)
	}
}

func TestParse_FlagsAfterPositionals(t *testing.T) {
	cfg, err := Parse("tcpcat", []string{"example.com", "80", "-t", "5s"}, noEnv, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Endpoint.Host != "example.com" || cfg.Endpoint.Port != 80 {
		t.Errorf("Unexpected endpoint %+v", cfg.Endpoint)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Expected 5s, got %v", cfg.Timeout)
	}
}

func TestParse_ZeroTimeoutFallsBack(t *testing.T) {
	cfg, err := Parse("tcpcat", []string{"-t", "0s", "localhost", "22"}, noEnv, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Expected zero timeout to use the default, got %v", cfg.Timeout)
	}
}

func TestParse_MalformedTimeoutFallsBack(t *testing.T) {
	cfg, err := Parse("tcpcat", []string{"--timeout", "soon", "localhost", "22"}, noEnv, io.Discard)
	if err != nil {
		t.Fatalf("Malformed timeout must not fail startup: %v", err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout, got %v", cfg.Timeout)
	}
}

func TestParse_Environment(t *testing.T) {
	env := envMap(map[string]string{
		EnvTimeout:  "4s",
		EnvBackend:  "iouring",
		EnvLogLevel: "warn",
	})

	cfg, err := Parse("tcpcat", []string{"localhost", "22"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Timeout != 4*time.Second {
		t.Errorf("Expected 4s from environment, got %v", cfg.Timeout)
	}
	if cfg.Backend != transport.BackendIOURing {
		t.Errorf("Expected iouring from environment, got %q", cfg.Backend)
	}
	if cfg.LogLevel != hclog.Warn {
		t.Errorf("Expected warn from environment, got %v", cfg.LogLevel)
	}

	// flags win over the environment
	cfg, err = Parse("tcpcat", []string{"-t", "1s", "localhost", "22"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Timeout != time.Second {
		t.Errorf("Expected flag to override environment, got %v", cfg.Timeout)
	}
}

func TestParse_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"localhost"},
		{"localhost", "22", "extra"},
		{"localhost", "70000"},
		{"localhost", "http"},
		{"--io", "epoll", "localhost", "22"},
	} {
		_, err := Parse("tcpcat", args, noEnv, io.Discard)
		var usageErr *UsageError
		if !errors.As(err, &usageErr) {
			t.Errorf("Parse(%q): expected *UsageError, got %v", args, err)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TCPCAT_TEST_DOTENV=7s\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TCPCAT_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("TCPCAT_TEST_DOTENV"); got != "7s" {
		t.Errorf("Expected value from .env, got %q", got)
	}
}
