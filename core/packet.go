package core

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	icmpNetwork = "ip4:icmp"
	defaultTTL  = 64
)

// ErrPrivilege is returned when the process is not allowed to open a raw ICMP socket.
var ErrPrivilege = errors.New("insufficient privileges to open a raw ICMP socket")

// packetConn is the raw socket a single probe is sent and received on.
type packetConn interface {
	// WriteTo sends an ICMP message to dst in a datagram with the given time to live.
	WriteTo(b []byte, ttl int, dst net.IP) error

	// ReadFrom reads one whole datagram, IP header included.
	ReadFrom(b []byte) (int, net.IP, error)

	SetReadDeadline(t time.Time) error
	Close() error
}

// rawConn is a packetConn over an IPv4 raw socket, headers are built and read by us.
type rawConn struct {
	conn *ipv4.RawConn
}

// listenRaw opens a raw ICMP socket.
func listenRaw() (packetConn, error) {
	c, err := net.ListenPacket(icmpNetwork, "0.0.0.0")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPrivilege, err)
		}
		return nil, fmt.Errorf("could not listen to ICMP packets: %w", err)
	}

	rc, err := ipv4.NewRawConn(c)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("could not create raw connection: %w", err)
	}

	return &rawConn{conn: rc}, nil
}

func (c *rawConn) WriteTo(b []byte, ttl int, dst net.IP) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(b),
		TTL:      ttl,
		Protocol: icmpProtocol,
		Dst:      dst,
	}

	return c.conn.WriteTo(h, b, nil)
}

func (c *rawConn) ReadFrom(b []byte) (int, net.IP, error) {
	h, p, _, err := c.conn.ReadFrom(b)
	if err != nil {
		return 0, nil, err
	}

	// header and payload are consecutive slices of b
	return h.Len + len(p), h.Src, nil
}

func (c *rawConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *rawConn) Close() error {
	return c.conn.Close()
}
