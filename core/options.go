package core

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Option customizes the collaborators of a session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger   *log.Logger
	prober   Prober
	resolver Resolver
	metrics  *Metrics
}

// WithLogger makes the session log to logger instead of a new one.
func WithLogger(logger *log.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithProber replaces the raw socket transport.
func WithProber(p Prober) Option {
	return func(o *sessionOptions) { o.prober = p }
}

// WithResolver replaces the resolver built from the settings.
func WithResolver(r Resolver) Option {
	return func(o *sessionOptions) { o.resolver = r }
}

// WithMetrics makes the session report every probe outcome to m.
func WithMetrics(m *Metrics) Option {
	return func(o *sessionOptions) { o.metrics = m }
}

// sessionBase holds what ping and traceroute sessions have in common.
type sessionBase struct {
	settings *Settings

	// id is the identifier of every echo request of the session.
	id uint16

	// host is the address given by the user
	host string

	// addr is the resolved IPv4 address of host
	addr net.IP

	// runID tells apart the logs and metrics of concurrent runs
	runID string

	logger   *log.Entry
	prober   Prober
	resolver Resolver
	metrics  *Metrics

	isStarted  bool
	isFinished bool
}

// newSessionBase validates the settings and resolves host, once for the whole session.
func newSessionBase(ctx context.Context, host string, settings *Settings, opts []Option) (*sessionBase, error) {
	o := &sessionOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = NewLogger(settings.LoggingLevel)
	}
	runID := uuid.New().String()
	logger := o.logger.WithField("session", runID)

	logger.Debug("Validating settings")
	if err := settings.validate(); err != nil {
		return nil, err
	}

	if o.resolver == nil {
		o.resolver = NewResolver(settings.DNSServer, settings.TimeoutDuration())
	}
	if o.prober == nil {
		o.prober = NewTransport(o.logger)
	}

	logger.Infof("Resolving address %s", host)
	addr, err := o.resolver.LookupIPv4(ctx, host)
	if err != nil {
		return nil, err
	}
	logger.Infof("Address %s resolved to IP Address %s", host, addr)

	return &sessionBase{
		settings: settings,
		id:       uint16(os.Getpid() & 0xffff),
		host:     host,
		addr:     addr,
		runID:    runID,
		logger:   logger,
		prober:   o.prober,
		resolver: o.resolver,
		metrics:  o.metrics,
	}, nil
}

// start marks the session as started, a session runs once.
func (s *sessionBase) start() error {
	if s.isFinished {
		return fmt.Errorf("this session has already finished")
	}
	if s.isStarted {
		return fmt.Errorf("this session has already started")
	}
	s.isStarted = true
	return nil
}

// pause waits for the interval setting once a probe has completed, so a slow answer never
// shortens the gap before the next request. It returns early with the error of ctx.
func (s *sessionBase) pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	interval := s.settings.IntervalDuration()
	if interval <= 0 {
		return nil
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Host is the address given by the user.
func (s *sessionBase) Host() string {
	return s.host
}

// Address is the resolved address of the target host.
func (s *sessionBase) Address() net.IP {
	return s.addr
}

// RunID is the random identifier of this run, found in its logs and metrics.
func (s *sessionBase) RunID() string {
	return s.runID
}

// Settings returns the settings of the session.
func (s *sessionBase) Settings() *Settings {
	return s.settings
}

// IsStarted returns whether this session is started
func (s *sessionBase) IsStarted() bool {
	return s.isStarted
}

// IsFinished returns whether this session is finished
func (s *sessionBase) IsFinished() bool {
	return s.isFinished
}
