//go:build !linux

package transport

import (
	"net"

	tcperrors "github.com/nczempin/tcpcat/errors"
)

func newIOURingHandles(conn *net.TCPConn) (ReadHandle, WriteHandle, error) {
	return nil, nil, tcperrors.New(tcperrors.InitError, "io_uring is only available on linux", nil)
}

func newURingHandles(conn *net.TCPConn) (ReadHandle, WriteHandle, error) {
	return nil, nil, tcperrors.New(tcperrors.InitError, "io_uring is only available on linux", nil)
}
