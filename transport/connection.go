package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"
	tcperrors "github.com/nczempin/tcpcat/errors"
)

// Connection is an established TCP connection split into a read handle and a
// write handle over the same socket. The read handle belongs to whoever
// pumps inbound data and is closed by that owner; Close tears down the rest.
type Connection struct {
	conn   net.Conn
	reader ReadHandle
	writer WriteHandle
	log    hclog.Logger

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

func newConnection(conn net.Conn, backend Backend, log hclog.Logger) (*Connection, error) {
	var (
		r   ReadHandle
		w   WriteHandle
		err error
	)

	switch backend {
	case BackendNet, "":
		r, w = newNetHandles(conn)
	case BackendIOURing, BackendURing:
		tcpConn, ok := conn.(*net.TCPConn)
		if !ok {
			return nil, tcperrors.New(tcperrors.InitError, "ring backends need a TCP connection", nil)
		}
		if backend == BackendIOURing {
			r, w, err = newIOURingHandles(tcpConn)
		} else {
			r, w, err = newURingHandles(tcpConn)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, tcperrors.New(tcperrors.InitError, "unknown backend "+string(backend), nil)
	}

	return &Connection{
		conn:   conn,
		reader: r,
		writer: w,
		log:    log,
		closed: make(chan struct{}),
	}, nil
}

// Reader returns the inbound handle.
func (c *Connection) Reader() ReadHandle {
	return c.reader
}

// Writer returns the outbound handle.
func (c *Connection) Writer() WriteHandle {
	return c.writer
}

func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Closed is closed once Close has run.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

// Close shuts the socket down in both directions, releases the write handle
// and closes the underlying connection. Shutting down wakes a read pending on
// the read handle, which then reports io.EOF or net.ErrClosed. Only the first
// call does any work; later calls return the first result.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		if tcpConn, ok := c.conn.(*net.TCPConn); ok {
			// errors here only mean the peer already went away
			_ = tcpConn.CloseWrite()
			_ = tcpConn.CloseRead()
		}

		if err := c.writer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.log.Debug("closing write handle", "error", err)
		}

		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = tcperrors.New(tcperrors.CloseError, "", err)
		}
		close(c.closed)
	})

	return c.closeErr
}
