package netmigo

import "errors"

var (
	// ErrNotConnected is returned when an operation needs a connection that was never opened.
	ErrNotConnected = errors.New("not connected to device, make sure to call Connect() first")

	// ErrUnsupportedProtocol is returned by InitTransport for unknown protocols.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)
