package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	tcperrors "github.com/nczempin/tcpcat/errors"
)

// Connect resolves the endpoint, dials the first resolved address within the
// configured timeout and returns the established connection.
func Connect(ctx context.Context, ep Endpoint, options ...Option) (*Connection, error) {
	opts := newOptions(options...)
	log := opts.Logger.With("endpoint", ep.String())

	addr, err := resolve(ctx, opts.Resolver, ep)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved endpoint", "addr", addr.String())

	fmt.Fprintf(opts.Progress, "Connecting to %s...\n", addr)

	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, classifyDialError(addr, err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm so typed lines go out at once
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, tcperrors.New(tcperrors.InitError, "failed to set TCP_NODELAY", err)
		}
	}

	c, err := newConnection(conn, opts.Backend, log)
	if err != nil {
		conn.Close()
		return nil, err
	}

	fmt.Fprintf(opts.Progress, "Connected to %s.\n", addr)
	log.Debug("connection established", "backend", string(opts.Backend), "local", c.LocalAddr().String())
	return c, nil
}

// resolve returns the first address the endpoint's host resolves to
func resolve(ctx context.Context, r Resolver, ep Endpoint) (*net.TCPAddr, error) {
	ips, err := r.LookupIPAddr(ctx, ep.Host)
	if err != nil {
		return nil, tcperrors.New(
			tcperrors.ResolutionError,
			fmt.Sprintf("failed to resolve %s", ep),
			err,
		)
	}
	if len(ips) == 0 {
		return nil, tcperrors.New(
			tcperrors.ResolutionError,
			fmt.Sprintf("no address for %s", ep),
			nil,
		)
	}

	return &net.TCPAddr{IP: ips[0].IP, Port: int(ep.Port), Zone: ips[0].Zone}, nil
}

func classifyDialError(addr *net.TCPAddr, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return tcperrors.New(
			tcperrors.TimeoutError,
			fmt.Sprintf("no handshake with %s before the deadline", addr),
			err,
		)
	}

	msg := fmt.Sprintf("failed to connect to %s", addr)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		msg = fmt.Sprintf("connection to %s refused", addr)
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		msg = fmt.Sprintf("%s is unreachable", addr)
	}
	return tcperrors.New(tcperrors.ConnectionError, msg, err)
}
