//go:build linux

package transport

import (
	"io"
	"net"
	"os"
	"sync"

	"github.com/iceber/iouring-go"
	tcperrors "github.com/nczempin/tcpcat/errors"
)

// ringQueueDepth is the submission queue size of every ring a handle owns
const ringQueueDepth = 32

// iouringHandle performs I/O on a duplicate of the socket descriptor through
// its own iouring-go ring, so the read and write halves never share a ring.
type iouringHandle struct {
	iour *iouring.IOURing
	file *os.File
	fd   int

	mu     sync.Mutex
	closed bool
}

func newIOURingHandle(conn *net.TCPConn) (*iouringHandle, error) {
	file, err := conn.File()
	if err != nil {
		return nil, tcperrors.New(tcperrors.InitError, "failed to duplicate socket", err)
	}

	iour, err := iouring.New(ringQueueDepth)
	if err != nil {
		file.Close()
		return nil, tcperrors.New(tcperrors.InitError, "failed to initialize io_uring", err)
	}

	return &iouringHandle{
		iour: iour,
		file: file,
		fd:   int(file.Fd()),
	}, nil
}

func newIOURingHandles(conn *net.TCPConn) (ReadHandle, WriteHandle, error) {
	r, err := newIOURingHandle(conn)
	if err != nil {
		return nil, nil, err
	}
	w, err := newIOURingHandle(conn)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return &iouringReader{r}, &iouringWriter{w}, nil
}

func (h *iouringHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close releases the duplicate descriptor and the ring
func (h *iouringHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	err := h.file.Close()
	h.iour.Close()
	if err != nil {
		return tcperrors.New(tcperrors.CloseError, "failed to close socket", err)
	}
	return nil
}

type iouringReader struct {
	*iouringHandle
}

// Read receives data with a single read request. Recv/Send leave the
// result unresolved, so the generic read/write ops are used on the socket.
func (r *iouringReader) Read(buf []byte) (int, error) {
	if r.isClosed() {
		return 0, tcperrors.New(tcperrors.ReadError, "handle closed", net.ErrClosed)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Read(r.fd, buf)
	if _, err := r.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, tcperrors.New(tcperrors.ReadError, "failed to submit read request", err)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, tcperrors.New(tcperrors.ReadError, "read failed", err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

type iouringWriter struct {
	*iouringHandle
}

// Write sends all of buf, resubmitting after short sends
func (w *iouringWriter) Write(buf []byte) (int, error) {
	if w.isClosed() {
		return 0, tcperrors.New(tcperrors.WriteError, "handle closed", net.ErrClosed)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		prepReq := iouring.Write(w.fd, buf[totalWritten:])
		if _, err := w.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "failed to submit write request", err)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "write failed", err)
		}

		if n <= 0 {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "connection closed during write", nil)
		}

		totalWritten += n
	}

	return totalWritten, nil
}
