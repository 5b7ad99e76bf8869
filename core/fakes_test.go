package core

import (
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// fakeProber replays scripted outcomes and records the requests it gets.
type fakeProber struct {
	outcomes []*Outcome
	errs     map[int]error
	reqs     []ProbeRequest
	dsts     []net.IP

	// latency is how long every probe takes, starts and ends record when
	latency time.Duration
	starts  []time.Time
	ends    []time.Time
}

func (p *fakeProber) Probe(ctx context.Context, dst net.IP, req ProbeRequest) (*Outcome, error) {
	p.starts = append(p.starts, time.Now())
	if p.latency > 0 {
		time.Sleep(p.latency)
	}
	defer func() { p.ends = append(p.ends, time.Now()) }()

	i := len(p.reqs)
	p.reqs = append(p.reqs, req)
	p.dsts = append(p.dsts, dst)

	if err, ok := p.errs[i]; ok {
		return nil, err
	}
	if i >= len(p.outcomes) {
		return buildTimedOut(int(req.Seq), req.Timeout), nil
	}

	out := *p.outcomes[i]
	out.Seq = int(req.Seq)
	return &out, nil
}

// fakeResolver resolves every host to ip and reverse resolves from names.
type fakeResolver struct {
	ip      net.IP
	err     error
	names   map[string]string
	lookups []string
}

func (r *fakeResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	r.lookups = append(r.lookups, host)
	if r.err != nil {
		return nil, r.err
	}
	return r.ip, nil
}

func (r *fakeResolver) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	name, ok := r.names[ip.String()]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrResolution, ip)
	}
	return name, nil
}

// testSettings are settings that do not pause between probes.
func testSettings() *Settings {
	settings := DefaultSettings()
	settings.Interval = 0
	settings.LoggingLevel = uint32(log.PanicLevel)
	return settings
}

func success(ms int, from net.IP) *Outcome {
	return &Outcome{Kind: Success, Delay: time.Duration(ms) * time.Millisecond, Responder: from}
}

func timedOut() *Outcome {
	return &Outcome{Kind: Timeout, Delay: time.Second}
}

func ttlExceeded(ms int, from net.IP) *Outcome {
	return &Outcome{Kind: TTLExceeded, Delay: time.Duration(ms) * time.Millisecond, Responder: from}
}
