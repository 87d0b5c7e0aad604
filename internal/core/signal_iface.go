package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Frame is a serialized outbound message.
type Frame []byte

// SignalConnection is one client's outbound side as the gateway sees it.
// The adapter that created it owns it and must Close it.
type SignalConnection interface {
	// TrySend never blocks. It returns ErrBackpressure when the outbound
	// buffer is full and ErrClosed after Close.
	TrySend(Frame) error
	Close()
}
