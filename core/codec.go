package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	echoCode      = 0
	icmpProtocol  = 1
	headerLen     = 8
	timestampLen  = 8
	ipv4HeaderLen = 20
	minReplyLen   = ipv4HeaderLen + headerLen
)

// ErrShortPacket is returned when a received datagram cannot hold an IPv4 and an ICMP header.
var ErrShortPacket = errors.New("packet too short")

// EchoReply is the parsed view of a datagram read from the raw socket.
type EchoReply struct {
	// IPHeader holds the first 20 bytes of the datagram, not validated.
	IPHeader []byte

	Type     uint8
	Code     uint8
	Checksum uint16
	ID       uint16
	Seq      uint16

	// Payload is everything after the 8-byte ICMP header.
	Payload []byte

	// Src is the address the datagram was received from, filled in by the transport.
	Src net.IP

	// Len is the length of the whole datagram.
	Len int

	// message is the ICMP message, header included.
	message []byte
}

// EncodeEchoRequest builds an echo request carrying sentAt as its payload.
func EncodeEchoRequest(id, seq uint16, sentAt time.Time) []byte {
	b := make([]byte, headerLen+timestampLen)
	b[0] = byte(ipv4.ICMPTypeEcho)
	b[1] = echoCode
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	binary.BigEndian.PutUint64(b[8:], math.Float64bits(timeToSeconds(sentAt)))

	binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	return b
}

// DecodeReply parses an IPv4 datagram holding an ICMP message.
func DecodeReply(b []byte) (*EchoReply, error) {
	if len(b) < minReplyLen {
		return nil, fmt.Errorf("%w: %d bytes received of min %d", ErrShortPacket, len(b), minReplyLen)
	}

	msg := append([]byte(nil), b[ipv4HeaderLen:]...)

	return &EchoReply{
		IPHeader: append([]byte(nil), b[:ipv4HeaderLen]...),
		Type:     msg[0],
		Code:     msg[1],
		Checksum: binary.BigEndian.Uint16(msg[2:4]),
		ID:       binary.BigEndian.Uint16(msg[4:6]),
		Seq:      binary.BigEndian.Uint16(msg[6:8]),
		Payload:  msg[headerLen:],
		Len:      len(b),
		message:  msg,
	}, nil
}

// TTL returns the time to live of the received datagram.
func (r *EchoReply) TTL() int {
	return int(r.IPHeader[8])
}

// SentAt returns the send timestamp carried in the payload of an echo reply.
func (r *EchoReply) SentAt() (time.Time, bool) {
	if len(r.Payload) < timestampLen {
		return time.Time{}, false
	}

	secs := math.Float64frombits(binary.BigEndian.Uint64(r.Payload[:timestampLen]))
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return time.Time{}, false
	}

	return secondsToTime(secs), true
}

// Quoted returns the identifier and sequence of the echo request quoted by a time exceeded
// or destination unreachable message.
func (r *EchoReply) Quoted() (id uint16, seq uint16, ok bool) {
	m, err := icmp.ParseMessage(icmpProtocol, r.message)
	if err != nil {
		return 0, 0, false
	}

	var data []byte
	switch body := m.Body.(type) {
	case *icmp.TimeExceeded:
		data = body.Data
	case *icmp.DstUnreach:
		data = body.Data
	default:
		return 0, 0, false
	}

	if len(data) < ipv4HeaderLen {
		return 0, 0, false
	}

	// the quoted datagram starts with the original IP header, options included
	hdrlen := int(data[0]&0x0f) << 2
	if hdrlen < ipv4HeaderLen || len(data) < hdrlen+headerLen || data[9] != icmpProtocol {
		return 0, 0, false
	}

	orig := data[hdrlen : hdrlen+headerLen]
	if orig[0] != byte(ipv4.ICMPTypeEcho) {
		return 0, 0, false
	}

	return binary.BigEndian.Uint16(orig[4:6]), binary.BigEndian.Uint16(orig[6:8]), true
}

func timeToSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func secondsToTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
