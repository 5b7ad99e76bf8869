package core

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNSServer serves a zone with a single A record and its PTR record on a local port.
func startDNSServer(t *testing.T) string {
	t.Helper()

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)

		q := req.Question[0]
		switch {
		case q.Qtype == dns.TypeA && q.Name == "example.com.":
			resp.Answer = append(resp.Answer, mustRR("example.com. 60 IN A 93.184.216.34"))
		case q.Qtype == dns.TypePTR && q.Name == "34.216.184.93.in-addr.arpa.":
			resp.Answer = append(resp.Answer, mustRR("34.216.184.93.in-addr.arpa. 60 IN PTR example.com."))
		case q.Qtype == dns.TypeA && q.Name == "ipv6only.example.com.":
			resp.Answer = append(resp.Answer, mustRR("ipv6only.example.com. 60 IN AAAA ::1"))
		default:
			resp.SetRcode(req, dns.RcodeNameError)
		}

		_ = w.WriteMsg(resp)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() {
		_ = server.ActivateAndServe()
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}

	return pc.LocalAddr().String()
}

func mustRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(err)
	}
	return rr
}

// TestNewResolver verifies which resolver is built for a server setting
func TestNewResolver(t *testing.T) {
	_, ok := NewResolver("", time.Second).(*systemResolver)
	assert.True(t, ok)

	r, ok := NewResolver("1.1.1.1", time.Second).(*dnsResolver)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1:53", r.server)

	r, ok = NewResolver("127.0.0.1:5353", time.Second).(*dnsResolver)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:5353", r.server)
}

// TestLiteralIPv4 tests which hosts are taken as addresses
func TestLiteralIPv4(t *testing.T) {
	tests := []struct {
		host    string
		ip      net.IP
		literal bool
		fails   bool
	}{
		{host: "8.8.8.8", ip: net.IPv4(8, 8, 8, 8).To4(), literal: true},
		{host: "::ffff:192.168.0.1", ip: net.IPv4(192, 168, 0, 1).To4(), literal: true},
		{host: "2606:4700::6811:af55", literal: true, fails: true},
		{host: "example.com"},
		{host: "256.1.1.1"},
	}

	for _, tt := range tests {
		ip, literal, err := literalIPv4(tt.host)
		assert.Equal(t, tt.literal, literal, tt.host)
		assert.Equal(t, tt.ip, ip, tt.host)
		if tt.fails {
			assert.True(t, errors.Is(err, ErrResolution), tt.host)
		} else {
			assert.NoError(t, err, tt.host)
		}
	}
}

// TestLookupIPv4Literal tests that addresses are returned without any query
func TestLookupIPv4Literal(t *testing.T) {
	for _, r := range []Resolver{NewResolver("", time.Second), NewResolver("127.0.0.1:1", time.Second)} {
		ip, err := r.LookupIPv4(context.Background(), "8.8.4.4")
		require.NoError(t, err)
		assert.Equal(t, net.IPv4(8, 8, 4, 4).To4(), ip)

		ip, err = r.LookupIPv4(context.Background(), "2001:db8::1")
		assert.Nil(t, ip)
		assert.True(t, errors.Is(err, ErrResolution))
	}
}

// TestDNSResolverLookupIPv4 resolves a name through a local server
func TestDNSResolverLookupIPv4(t *testing.T) {
	r := NewResolver(startDNSServer(t), 2*time.Second)

	ip, err := r.LookupIPv4(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, testDst, ip)
}

// TestDNSResolverLookupIPv4Failures tests unknown names and answers without A records
func TestDNSResolverLookupIPv4Failures(t *testing.T) {
	r := NewResolver(startDNSServer(t), 2*time.Second)

	for _, host := range []string{"unknown.example.com", "ipv6only.example.com"} {
		ip, err := r.LookupIPv4(context.Background(), host)
		assert.Nil(t, ip)
		assert.True(t, errors.Is(err, ErrResolution), "%s: %v", host, err)
	}
}

// TestDNSResolverLookupAddr reverse resolves an address through a local server
func TestDNSResolverLookupAddr(t *testing.T) {
	r := NewResolver(startDNSServer(t), 2*time.Second)

	name, err := r.LookupAddr(context.Background(), testDst)
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)

	_, err = r.LookupAddr(context.Background(), testRouter)
	assert.True(t, errors.Is(err, ErrResolution))
}
