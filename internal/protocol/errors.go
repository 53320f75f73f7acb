package protocol

import (
	"errors"
	"fmt"
)

// Category sentinels. Every error returned by Read and Write wraps exactly
// one of them together with its concrete cause.
var (
	ErrProtocol  = errors.New("protocol: protocol error")
	ErrTransport = errors.New("protocol: transport error")
)

var (
	ErrMissingFunc = fmt.Errorf("%w: message has no func", ErrProtocol)
	ErrBadNumber   = fmt.Errorf("%w: invalid numeric parameter", ErrProtocol)
)
