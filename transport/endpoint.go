package transport

import (
	"net"
	"strconv"
)

// Endpoint is the user-supplied destination of a connection attempt
type Endpoint struct {
	Host string
	Port uint16
}

// String returns the endpoint in host:port form, bracketing IPv6 literals
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}
