package channels

import "errors"

// Errors returned by the outer ends of an instrumented (or plain) channel
// pair. These are forwarded verbatim from whichever end observed the
// condition first — the proxy never synthesizes an application-visible
// error beyond these three terminal conditions.
var (
	// ErrClosed is returned by Recv/Receive when the sender closed the
	// channel without (or after) delivering any further values.
	ErrClosed = errors.New("channels: closed")

	// ErrReceiverClosed is returned by Send when the receiving end has
	// been closed; no further values can be delivered.
	ErrReceiverClosed = errors.New("channels: receiver closed")

	// ErrSenderClosed is returned by a one-shot Recv when the sender was
	// closed (dropped) without ever sending a value.
	ErrSenderClosed = errors.New("channels: sender closed without sending")
)
