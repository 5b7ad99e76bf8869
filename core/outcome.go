package core

import (
	"net"
	"time"
)

// OutcomeKind is the classification of a single probe.
type OutcomeKind int

const (
	// Success is the result of an echo request answered by an echo reply carrying our identifier
	Success OutcomeKind = iota
	// Timeout is the result of an echo request that got no usable answer in time
	Timeout
	// TTLExceeded is the result of an echo request discarded by a router because its TTL expired
	TTLExceeded
	// Unreachable is the result of an echo request answered by a destination unreachable message
	Unreachable
	// Unmatched is a received datagram that does not answer the request, the wait goes on
	Unmatched
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case TTLExceeded:
		return "ttl_exceeded"
	case Unreachable:
		return "unreachable"
	case Unmatched:
		return "unmatched"
	}
	return "unknown"
}

// Outcome is the end result of one probe round trip.
type Outcome struct {
	Kind OutcomeKind

	// Delay is the measured round-trip time. For timeouts it holds the timeout that expired.
	Delay time.Duration

	// Responder is the address the answer came from, nil on timeout.
	Responder net.IP

	Seq int // seq of the request
	TTL int // ttl of the received datagram
	Len int // length of the received datagram
}

// buildTimedOut builds the outcome of a request whose wait expired.
func buildTimedOut(seq int, timeout time.Duration) *Outcome {
	return &Outcome{
		Kind:  Timeout,
		Delay: timeout,
		Seq:   seq,
	}
}
