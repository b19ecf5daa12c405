package transport

import (
	"errors"
	"io"
	"net"
	"syscall"

	tcperrors "github.com/nczempin/tcpcat/errors"
)

// netReader and netWriter share one net.Conn; a net.Conn allows one
// concurrent reader and one concurrent writer without locking.
type netReader struct {
	conn net.Conn
}

type netWriter struct {
	conn net.Conn
}

func newNetHandles(conn net.Conn) (*netReader, *netWriter) {
	return &netReader{conn: conn}, &netWriter{conn: conn}
}

// Read receives data from the connection
func (r *netReader) Read(buf []byte) (int, error) {
	n, err := r.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, tcperrors.New(tcperrors.ReadError, "", err)
	}

	return n, nil
}

// Close stops further reads without touching the write direction
func (r *netReader) Close() error {
	if tcpConn, ok := r.conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseRead(); err != nil && !errors.Is(err, net.ErrClosed) {
			return tcperrors.New(tcperrors.CloseError, "failed to shut down read side", err)
		}
	}
	return nil
}

// Write sends all of buf over the connection
func (w *netWriter) Write(buf []byte) (int, error) {
	n, err := w.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
			return n, tcperrors.New(tcperrors.WriteError, "connection closed by peer", err)
		}
		return n, tcperrors.New(tcperrors.WriteError, "", err)
	}

	return n, nil
}

// Close half-closes the connection, sending FIN to the peer
func (w *netWriter) Close() error {
	if tcpConn, ok := w.conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil && !errors.Is(err, net.ErrClosed) {
			return tcperrors.New(tcperrors.CloseError, "failed to shut down write side", err)
		}
	}
	return nil
}
