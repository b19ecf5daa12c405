// Package relay moves bytes between local terminal I/O and an established
// connection: a background inbound pump copies socket data to the output,
// while the outbound loop forwards input lines to the socket on the caller's
// goroutine. The end of the outbound loop tears the connection down.
package relay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	tcperrors "github.com/nczempin/tcpcat/errors"
	"github.com/nczempin/tcpcat/transport"
)

// BufferSize is the size of the inbound scratch buffer
const BufferSize = 1024

// ErrInvalidUTF8 is the input error for a line that is not valid UTF-8.
// Input is line-oriented text; such a line ends the outbound loop unsent.
var ErrInvalidUTF8 = errors.New("input line is not valid UTF-8")

// State is the lifecycle stage of a Relay
type State int32

const (
	Running State = iota
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Conn is the part of *transport.Connection the relay uses.
type Conn interface {
	Reader() transport.ReadHandle
	Writer() transport.WriteHandle
	Close() error
}

type flusher interface {
	Flush() error
}

// Relay is a single duplex session over one connection.
type Relay struct {
	conn     Conn
	input    io.Reader
	output   io.Writer
	progress io.Writer
	log      hclog.Logger

	state       atomic.Int32
	teardown    atomic.Bool
	inboundDone chan struct{}
}

// New creates a relay that reads lines from input and writes received bytes
// to output. Closing messages go to progress; diagnostics go to log.
func New(conn Conn, input io.Reader, output, progress io.Writer, log hclog.Logger) *Relay {
	if progress == nil {
		progress = io.Discard
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Relay{
		conn:        conn,
		input:       input,
		output:      output,
		progress:    progress,
		log:         log,
		inboundDone: make(chan struct{}),
	}
}

// State reports the current lifecycle stage.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// InboundDone is closed when the inbound pump has returned.
func (r *Relay) InboundDone() <-chan struct{} {
	return r.inboundDone
}

// Run starts the inbound pump and runs the outbound loop until the user
// enters an empty line, input ends, or a write fails. It then closes the
// connection and returns. Errors during the session are reported on the
// logger, not returned; the inbound pump is not waited for.
func (r *Relay) Run() error {
	go r.pumpInbound()

	r.pumpOutbound()

	r.drain()
	r.teardown.Store(true)
	if err := r.conn.Close(); err != nil {
		r.log.Debug("closing connection", "error", err)
	}
	r.state.Store(int32(Closed))

	fmt.Fprintln(r.progress, "Connection closed.")
	return nil
}

func (r *Relay) drain() {
	r.state.CompareAndSwap(int32(Running), int32(Draining))
}

// pumpInbound copies socket data to the output until EOF or a read error.
// Its end does not stop the outbound loop.
func (r *Relay) pumpInbound() {
	defer close(r.inboundDone)
	defer r.drain()

	reader := r.conn.Reader()
	defer reader.Close()

	buf := make([]byte, BufferSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if werr := r.writeOutput(buf[:n]); werr != nil {
				r.log.Error("writing received data", "error", werr)
				return
			}
		}

		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			r.log.Debug("remote closed the connection")
			return
		}
		if r.teardown.Load() {
			return
		}

		if !tcperrors.IsKind(err, tcperrors.ReadError) {
			err = tcperrors.New(tcperrors.ReadError, "", err)
		}
		r.log.Error("socket read failed", "error", err)
		return
	}
}

// writeOutput writes p in full and flushes the output when it can be flushed
func (r *Relay) writeOutput(p []byte) error {
	if _, err := r.output.Write(p); err != nil {
		return err
	}

	if f, ok := r.output.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// pumpOutbound forwards input lines, without their terminator, to the
// connection until an empty line, end of input, or an error.
func (r *Relay) pumpOutbound() {
	writer := r.conn.Writer()
	lines := bufio.NewReader(r.input)

	for {
		line, err := readLine(lines)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.log.Error("reading input failed", "error", tcperrors.New(tcperrors.InputError, "", err))
			}
			return
		}

		if line == "" {
			r.log.Debug("empty line, ending session")
			return
		}

		if _, err := writer.Write([]byte(line)); err != nil {
			if !tcperrors.IsKind(err, tcperrors.WriteError) {
				err = tcperrors.New(tcperrors.WriteError, "", err)
			}
			r.log.Error("socket write failed", "error", err)
			return
		}
	}
}

// readLine returns the next line with its "\n" or "\r\n" terminator removed.
// A final line without terminator is returned before io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	} else {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
	}

	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	return line, nil
}
