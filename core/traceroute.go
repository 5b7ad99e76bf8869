package core

import (
	"context"
	"errors"
	"fmt"
)

const traceTool = "traceroute"

// Hop is the result of the probe sent with a given TTL.
type Hop struct {
	TTL     int
	Outcome *Outcome

	// Name is the reverse resolved name of the responder, if asked for and found.
	Name string
}

// TraceResult is how a traceroute ended.
type TraceResult struct {
	Hops []*Hop

	// Reached is set when the destination itself answered.
	Reached bool

	// Unreachable is set when a hop reported the destination as unreachable.
	Unreachable bool

	// MaxHopsReached is set when every TTL was probed without reaching the destination.
	MaxHopsReached bool
}

// TraceSession probes a host with increasing TTLs to discover the path towards it.
type TraceSession struct {
	*sessionBase

	result *TraceResult

	hopHandlers []func(*TraceSession, *Hop)
	stHandlers  []func(*TraceSession)
	endHandlers []func(*TraceSession)
}

// NewTraceSession creates a new TraceSession, resolving host.
func NewTraceSession(ctx context.Context, host string, settings *Settings, opts ...Option) (*TraceSession, error) {
	base, err := newSessionBase(ctx, host, settings, opts)
	if err != nil {
		return nil, err
	}

	base.logger.Infof("Created traceroute session with id %d, addr %s, max hops %d",
		base.id, base.addr, settings.MaxHops)

	return &TraceSession{
		sessionBase: base,
		result:      &TraceResult{},
	}, nil
}

// Run probes TTL 1 up to MaxHops-1 and stops as soon as the destination answers.
func (s *TraceSession) Run(ctx context.Context) error {
	if err := s.start(); err != nil {
		return err
	}
	s.metrics.RunStarted(traceTool, s.runID, s.addr)

	for _, f := range s.stHandlers {
		f(s)
	}

	stopped := false
	for ttl := 1; ttl < s.settings.MaxHops; ttl++ {
		if ttl > 1 {
			if err := s.pause(ctx); err != nil {
				s.logger.Infof("Stopping before ttl %d: %s", ttl, err)
				stopped = true
				break
			}
		}

		req := ProbeRequest{
			ID:      s.id,
			Seq:     uint16(ttl),
			TTL:     ttl,
			Timeout: s.settings.TimeoutDuration(),
			Mode:    DelayFromClock,
		}

		out, err := s.prober.Probe(ctx, s.addr, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Infof("Stopping at ttl %d: %s", ttl, err)
				stopped = true
				break
			}
			return fmt.Errorf("probe with ttl %d to %s failed: %w", ttl, s.addr, err)
		}

		hop := s.processHop(ctx, ttl, out)

		if hop.Outcome.Kind == Success || hop.Outcome.Responder.Equal(s.addr) {
			s.logger.Infof("Destination %s reached at ttl %d", s.addr, ttl)
			s.result.Reached = true
			break
		}
		if hop.Outcome.Kind == Unreachable {
			s.logger.Infof("Destination %s reported unreachable at ttl %d", s.addr, ttl)
			s.result.Unreachable = true
			break
		}
	}

	if !stopped && !s.result.Reached && !s.result.Unreachable {
		s.result.MaxHopsReached = true
	}

	for _, f := range s.endHandlers {
		f(s)
	}

	s.isFinished = true
	return nil
}

// Result returns how the traceroute went so far.
func (s *TraceSession) Result() *TraceResult {
	return s.result
}

// AddHopHandler adds a handler function that will be called after every hop
func (s *TraceSession) AddHopHandler(handler func(*TraceSession, *Hop)) {
	s.hopHandlers = append(s.hopHandlers, handler)
}

// AddStHandler adds a handler function that will be called when the session starts
func (s *TraceSession) AddStHandler(handler func(*TraceSession)) {
	s.stHandlers = append(s.stHandlers, handler)
}

// AddEndHandler adds a handler function that will be called when the session ends
func (s *TraceSession) AddEndHandler(handler func(*TraceSession)) {
	s.endHandlers = append(s.endHandlers, handler)
}

func (s *TraceSession) processHop(ctx context.Context, ttl int, out *Outcome) *Hop {
	hop := &Hop{TTL: ttl, Outcome: out}

	if s.settings.ResolveHops && out.Responder != nil {
		name, err := s.resolver.LookupAddr(ctx, out.Responder)
		if err != nil {
			s.logger.Debugf("Could not reverse resolve %s: %s", out.Responder, err)
		} else {
			hop.Name = name
		}
	}

	s.result.Hops = append(s.result.Hops, hop)
	s.metrics.Observe(traceTool, out)

	for _, f := range s.hopHandlers {
		f(s, hop)
	}

	return hop
}
