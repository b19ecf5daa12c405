//go:build linux

package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"

	"github.com/godzie44/go-uring/uring"
	tcperrors "github.com/nczempin/tcpcat/errors"
)

// uringHandle is the go-uring counterpart of iouringHandle: one duplicate
// descriptor and one ring per handle.
type uringHandle struct {
	ring *uring.Ring
	file *os.File

	mu     sync.Mutex
	closed bool
}

func newURingHandle(conn *net.TCPConn) (*uringHandle, error) {
	file, err := conn.File()
	if err != nil {
		return nil, tcperrors.New(tcperrors.InitError, "failed to duplicate socket", err)
	}

	ring, err := uring.New(ringQueueDepth)
	if err != nil {
		file.Close()
		return nil, tcperrors.New(tcperrors.InitError, "failed to initialize io_uring", err)
	}

	return &uringHandle{
		ring: ring,
		file: file,
	}, nil
}

func newURingHandles(conn *net.TCPConn) (ReadHandle, WriteHandle, error) {
	r, err := newURingHandle(conn)
	if err != nil {
		return nil, nil, err
	}
	w, err := newURingHandle(conn)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return &uringReader{r}, &uringWriter{w}, nil
}

func (h *uringHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// complete submits the queued SQE and waits for its completion, returning
// the result count.
func (h *uringHandle) complete() (int, error) {
	if _, err := h.ring.Submit(); err != nil {
		return 0, err
	}

	for {
		cqe, err := h.ring.WaitCQEvents(1)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}

		if err := cqe.Error(); err != nil {
			h.ring.SeenCQE(cqe)
			return 0, err
		}

		n := int(cqe.Res)
		h.ring.SeenCQE(cqe)
		return n, nil
	}
}

// Close releases the duplicate descriptor and the ring
func (h *uringHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	err := h.file.Close()
	h.ring.Close()
	if err != nil {
		return tcperrors.New(tcperrors.CloseError, "failed to close socket", err)
	}
	return nil
}

type uringReader struct {
	*uringHandle
}

// Read receives data with a single Read SQE
func (r *uringReader) Read(buf []byte) (int, error) {
	if r.isClosed() {
		return 0, tcperrors.New(tcperrors.ReadError, "handle closed", net.ErrClosed)
	}

	sqe := uring.Read(r.file.Fd(), buf, 0)
	if err := r.ring.QueueSQE(sqe, 0, 0); err != nil {
		return 0, tcperrors.New(tcperrors.ReadError, "failed to queue read request", err)
	}

	n, err := r.complete()
	if err != nil {
		return 0, tcperrors.New(tcperrors.ReadError, "read operation failed", err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

type uringWriter struct {
	*uringHandle
}

// Write sends all of buf, queueing a new SQE after short writes
func (w *uringWriter) Write(buf []byte) (int, error) {
	if w.isClosed() {
		return 0, tcperrors.New(tcperrors.WriteError, "handle closed", net.ErrClosed)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		sqe := uring.Write(w.file.Fd(), buf[totalWritten:], 0)
		if err := w.ring.QueueSQE(sqe, 0, 0); err != nil {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "failed to queue write request", err)
		}

		n, err := w.complete()
		if err != nil {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "write operation failed", err)
		}

		if n <= 0 {
			return totalWritten, tcperrors.New(tcperrors.WriteError, "connection closed during write", nil)
		}

		totalWritten += n
	}

	return totalWritten, nil
}
