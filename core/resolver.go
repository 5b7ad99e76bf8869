package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ErrResolution is returned when a host cannot be resolved to an IPv4 address.
var ErrResolution = errors.New("could not resolve host")

// Resolver resolves hostnames to IPv4 addresses and addresses back to names.
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) (net.IP, error)
	LookupAddr(ctx context.Context, ip net.IP) (string, error)
}

// NewResolver returns the system resolver when server is empty, otherwise a resolver that
// queries server directly.
func NewResolver(server string, timeout time.Duration) Resolver {
	if server == "" {
		return &systemResolver{resolver: net.DefaultResolver}
	}

	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	return &dnsResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// literalIPv4 handles hosts that are already addresses. IPv4-mapped IPv6 addresses count
// as IPv4.
func literalIPv4(host string) (net.IP, bool, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, false, nil
	}
	if ip.To4() == nil {
		return nil, true, fmt.Errorf("%w: %s is not an IPv4 address", ErrResolution, host)
	}
	return ip.To4(), true, nil
}

type systemResolver struct {
	resolver *net.Resolver
}

func (r *systemResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip, ok, err := literalIPv4(host); ok {
		return ip, err
	}

	ips, err := r.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %s", ErrResolution, host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w %s: no IPv4 address found", ErrResolution, host)
	}

	return ips[0].To4(), nil
}

func (r *systemResolver) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	names, err := r.resolver.LookupAddr(ctx, ip.String())
	if err != nil {
		return "", fmt.Errorf("%w %s: %s", ErrResolution, ip, err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w %s: no name found", ErrResolution, ip)
	}
	return strings.TrimSuffix(names[0], "."), nil
}

type dnsResolver struct {
	server string
	client *dns.Client
}

func (r *dnsResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip, ok, err := literalIPv4(host); ok {
		return ip, err
	}

	resp, err := r.exchange(ctx, dns.Fqdn(host), dns.TypeA)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %s", ErrResolution, host, err)
	}

	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.To4(), nil
		}
	}

	return nil, fmt.Errorf("%w %s: no A record in answer from %s", ErrResolution, host, r.server)
}

func (r *dnsResolver) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	arpa, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return "", fmt.Errorf("%w %s: %s", ErrResolution, ip, err)
	}

	resp, err := r.exchange(ctx, arpa, dns.TypePTR)
	if err != nil {
		return "", fmt.Errorf("%w %s: %s", ErrResolution, ip, err)
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}

	return "", fmt.Errorf("%w %s: no PTR record in answer from %s", ErrResolution, ip, r.server)
}

func (r *dnsResolver) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("query to %s failed: %w", r.server, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response from %s", r.server)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("server %s answered %s", r.server, dns.RcodeToString[resp.Rcode])
	}

	return resp, nil
}
