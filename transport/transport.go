package transport

import (
	"fmt"
	"io"
	"strings"
)

// ReadHandle is the inbound half of a Connection. Read returns io.EOF once
// the peer has closed its write side. The handle must be closed by its owner.
type ReadHandle interface {
	io.ReadCloser
}

// WriteHandle is the outbound half of a Connection.
type WriteHandle interface {
	io.WriteCloser
}

// Backend selects how the two connection handles perform their I/O.
type Backend string

const (
	// BackendNet performs blocking reads and writes on the net.Conn.
	BackendNet Backend = "net"
	// BackendIOURing submits read/write requests to an iouring-go ring.
	BackendIOURing Backend = "iouring"
	// BackendURing queues Read/Write SQEs on a go-uring ring.
	BackendURing Backend = "uring"
)

// ParseBackend maps a backend name to a Backend. The empty string selects
// BackendNet.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendNet:
		return BackendNet, nil
	case BackendIOURing:
		return BackendIOURing, nil
	case BackendURing:
		return BackendURing, nil
	default:
		return "", fmt.Errorf("unknown I/O backend %q (want net, iouring or uring)", s)
	}
}
