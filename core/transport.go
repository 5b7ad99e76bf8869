package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"
)

const (
	// maxReplyLen is the most we read of a single datagram.
	maxReplyLen = 1024

	// unmatchedLogInterval spaces the logs about datagrams of other processes.
	unmatchedLogInterval = time.Second
)

// DelayMode selects how the delay of a successful probe is measured.
type DelayMode int

const (
	// DelayFromPayload measures the delay against the send timestamp echoed back in the reply.
	DelayFromPayload DelayMode = iota
	// DelayFromClock measures the delay between the local send and receive times.
	DelayFromClock
)

// ProbeRequest describes a single echo request and how to wait for its answer.
type ProbeRequest struct {
	ID  uint16
	Seq uint16

	// TTL is the time to live of the request, zero keeps the default.
	TTL int

	// Timeout bounds the wait for an answer.
	Timeout time.Duration

	Mode DelayMode
}

// Prober sends one echo request and waits for its outcome.
type Prober interface {
	Probe(ctx context.Context, dst net.IP, req ProbeRequest) (*Outcome, error)
}

// Transport is a Prober that opens a raw socket for every probe.
type Transport struct {
	logger *log.Logger
	listen func() (packetConn, error)
	now    func() time.Time

	// every ICMP datagram reaching the host is read, unmatchedLog keeps the noise down
	unmatchedLog rate.Sometimes
	unmatched    int
}

// NewTransport creates a Transport over raw ICMP sockets.
func NewTransport(logger *log.Logger) *Transport {
	return &Transport{
		logger:       logger,
		listen:       listenRaw,
		now:          time.Now,
		unmatchedLog: rate.Sometimes{Interval: unmatchedLogInterval},
	}
}

// Probe opens a socket, sends the request to dst and waits for its outcome. The socket is
// closed before returning.
func (t *Transport) Probe(ctx context.Context, dst net.IP, req ProbeRequest) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logger.Debugf("Opening raw socket for request seq %d", req.Seq)
	conn, err := t.listen()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	sentAt, err := t.SendProbe(conn, dst, req)
	if err != nil {
		return nil, err
	}

	return t.ReceiveProbe(conn, req, sentAt)
}

// SendProbe writes the echo request to dst and returns when it was sent.
func (t *Transport) SendProbe(conn packetConn, dst net.IP, req ProbeRequest) (time.Time, error) {
	sentAt := t.now()
	msg := EncodeEchoRequest(req.ID, req.Seq, sentAt)

	t.logger.Debugf("Writing ICMP message %x to address %s with ttl %d", msg, dst, req.TTL)
	if err := conn.WriteTo(msg, req.TTL, dst); err != nil {
		return sentAt, fmt.Errorf("error while sending echo request to %s: %w", dst, err)
	}

	return sentAt, nil
}

// ReceiveProbe waits until sentAt+req.Timeout for an answer to req. Datagrams that are too
// short or do not answer the request are skipped.
func (t *Transport) ReceiveProbe(conn packetConn, req ProbeRequest, sentAt time.Time) (*Outcome, error) {
	deadline := sentAt.Add(req.Timeout)

	t.logger.Tracef("Setting read deadline to %s", deadline)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("error while setting read deadline: %w", err)
	}

	buffer := make([]byte, maxReplyLen)
	for {
		length, src, err := conn.ReadFrom(buffer)
		if err != nil {
			if isTimeout(err) {
				t.logger.Debugf("Read deadline has expired for request seq %d", req.Seq)
				return buildTimedOut(int(req.Seq), req.Timeout), nil
			}
			return nil, fmt.Errorf("error while reading from connection: %w", err)
		}
		receivedAt := t.now()

		reply, err := DecodeReply(buffer[:length])
		if err != nil {
			t.logger.Debugf("Could not parse raw packet: %s", err)
			continue
		}
		reply.Src = src

		out := classify(reply, req, sentAt, receivedAt)
		if out.Kind == Unmatched {
			t.logUnmatched(reply)
			continue
		}

		t.logger.Debugf("Request seq %d ended as %s from %s", req.Seq, out.Kind, src)
		return out, nil
	}
}

// logUnmatched logs a datagram that answers nothing of ours, at most once per interval.
func (t *Transport) logUnmatched(reply *EchoReply) {
	t.unmatched++
	t.unmatchedLog.Do(func() {
		t.logger.WithField("skipped", t.unmatched).Debugf(
			"Received message that does not match, type %d code %d id %d from %s",
			reply.Type, reply.Code, reply.ID, reply.Src)
		t.unmatched = 0
	})
}

// classify maps a decoded datagram to the outcome of req.
func classify(reply *EchoReply, req ProbeRequest, sentAt, receivedAt time.Time) *Outcome {
	elapsed := receivedAt.Sub(sentAt)
	out := &Outcome{
		Responder: reply.Src,
		Seq:       int(req.Seq),
		TTL:       reply.TTL(),
		Len:       reply.Len,
		Delay:     elapsed,
	}

	switch {
	case reply.ID == req.ID && reply.Type == byte(ipv4.ICMPTypeEchoReply):
		out.Kind = Success
		out.Seq = int(reply.Seq)
		if req.Mode == DelayFromPayload {
			if tstp, ok := reply.SentAt(); ok && !receivedAt.Before(tstp) {
				out.Delay = receivedAt.Sub(tstp)
			}
		}
	case elapsed > req.Timeout:
		return buildTimedOut(int(req.Seq), req.Timeout)
	case reply.Type == byte(ipv4.ICMPTypeTimeExceeded) && quotes(reply, req):
		out.Kind = TTLExceeded
	case reply.Type == byte(ipv4.ICMPTypeDestinationUnreachable) && quotes(reply, req):
		out.Kind = Unreachable
	default:
		out.Kind = Unmatched
	}

	return out
}

// quotes reports whether reply carries the header of req itself. Quotes of other protocols,
// other sessions or earlier sequence numbers do not match.
func quotes(reply *EchoReply, req ProbeRequest) bool {
	id, seq, ok := reply.Quoted()
	return ok && id == req.ID && seq == req.Seq
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var neterr net.Error
	return errors.As(err, &neterr) && neterr.Timeout()
}
