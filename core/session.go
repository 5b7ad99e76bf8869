package core

import (
	"context"
	"errors"
	"fmt"
)

const pingTool = "ping"

// PingSession is an aggregation of ping executions towards one host
type PingSession struct {
	*sessionBase

	// Stats contain the overall statistics of the session
	Stats *Statistics

	// rtHandlers are the callback functions called when a round trip ends.
	rtHandlers []func(*PingSession, *Outcome)

	// stHandlers are the callback functions called when the session starts.
	stHandlers []func(*PingSession)

	// endHandlers are the callback functions called when the session ends.
	endHandlers []func(*PingSession)
}

// NewPingSession creates a new PingSession, resolving host.
func NewPingSession(ctx context.Context, host string, settings *Settings, opts ...Option) (*PingSession, error) {
	base, err := newSessionBase(ctx, host, settings, opts)
	if err != nil {
		return nil, err
	}

	session := &PingSession{
		sessionBase: base,
		Stats:       NewStatistics(),
	}

	base.logger.Infof("Created ping session with id %d, addr %s, count %d",
		session.id, session.addr, settings.Count)

	return session, nil
}

// Run executes the sequence of pings. Cancelling ctx stops the session after the running
// probe, the end handlers are still called.
func (s *PingSession) Run(ctx context.Context) error {
	if err := s.start(); err != nil {
		return err
	}
	s.metrics.RunStarted(pingTool, s.runID, s.addr)

	s.Stats.SessionStarted()
	s.logger.Info("Calling start callbacks")
	for _, f := range s.stHandlers {
		f(s)
	}

	for i := 0; i < s.settings.Count; i++ {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				s.logger.Infof("Stopping before request %d: %s", i, err)
				break
			}
		}

		req := ProbeRequest{
			ID:      s.id,
			Seq:     uint16(i),
			TTL:     s.settings.TTL,
			Timeout: s.settings.TimeoutDuration(),
			Mode:    DelayFromPayload,
		}

		out, err := s.prober.Probe(ctx, s.addr, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Infof("Stopping at request %d: %s", i, err)
				break
			}
			return fmt.Errorf("echo request %d to %s failed: %w", i, s.addr, err)
		}

		s.processRoundTrip(out)
	}

	s.Stats.SessionEnded()
	s.logger.Info("Calling ending callbacks")
	for _, f := range s.endHandlers {
		f(s)
	}

	s.isFinished = true
	s.logger.Info("Session ended")
	return nil
}

// AddRtHandler adds a handler function that will be called after an echo request is replied or fails
func (s *PingSession) AddRtHandler(handler func(*PingSession, *Outcome)) {
	s.rtHandlers = append(s.rtHandlers, handler)
}

// AddStHandler adds a handler function that will be called when the session starts
func (s *PingSession) AddStHandler(handler func(*PingSession)) {
	s.stHandlers = append(s.stHandlers, handler)
}

// AddEndHandler adds a handler function that will be called when the session ends
func (s *PingSession) AddEndHandler(handler func(*PingSession)) {
	s.endHandlers = append(s.endHandlers, handler)
}

// processRoundTrip updates the statistics and calls all handlers for a round trip.
func (s *PingSession) processRoundTrip(out *Outcome) {
	s.Stats.Record(out)
	s.metrics.Observe(pingTool, out)

	s.logger.Debugf("Calling all handlers for round trip seq %d", out.Seq)
	for _, f := range s.rtHandlers {
		f(s, out)
	}
}
