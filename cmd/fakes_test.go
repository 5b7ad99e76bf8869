package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mikaelmello/pingtrace/core"
)

var (
	testDst    = net.IPv4(93, 184, 216, 34).To4()
	testRouter = net.IPv4(10, 0, 0, 1).To4()
)

// scriptedProber answers with outcomes in order, then times out.
type scriptedProber struct {
	outcomes []*core.Outcome
	err      error
	probes   int
}

func (p *scriptedProber) Probe(ctx context.Context, dst net.IP, req core.ProbeRequest) (*core.Outcome, error) {
	i := p.probes
	p.probes++

	if p.err != nil {
		return nil, p.err
	}
	if i >= len(p.outcomes) {
		return &core.Outcome{Kind: core.Timeout, Delay: req.Timeout, Seq: int(req.Seq)}, nil
	}

	out := *p.outcomes[i]
	out.Seq = int(req.Seq)
	return &out, nil
}

// staticResolver knows a few hosts and names.
type staticResolver struct {
	hosts map[string]net.IP
	names map[string]string
}

func newStaticResolver() *staticResolver {
	return &staticResolver{
		hosts: map[string]net.IP{"example.com": testDst},
		names: map[string]string{},
	}
}

func (r *staticResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4(), nil
	}
	ip, ok := r.hosts[host]
	if !ok {
		return nil, fmt.Errorf("%w %s: no such host", core.ErrResolution, host)
	}
	return ip, nil
}

func (r *staticResolver) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	name, ok := r.names[ip.String()]
	if !ok {
		return "", fmt.Errorf("%w %s: no name", core.ErrResolution, ip)
	}
	return name, nil
}

func replied(ms int) *core.Outcome {
	return &core.Outcome{Kind: core.Success, Delay: time.Duration(ms) * time.Millisecond, Responder: testDst}
}

func expired(d time.Duration, from net.IP) *core.Outcome {
	return &core.Outcome{Kind: core.TTLExceeded, Delay: d, Responder: from}
}

func unreachable(from net.IP) *core.Outcome {
	return &core.Outcome{Kind: core.Unreachable, Delay: time.Millisecond, Responder: from}
}

func timeout() *core.Outcome {
	return &core.Outcome{Kind: core.Timeout, Delay: 2 * time.Second}
}
