package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// session is what a runner runs, a ping or a traceroute session.
type session interface {
	Run(ctx context.Context) error
}

// Runner is the struct that is responsible for running a session until it ends or is interrupted
type Runner struct {
	session session
	ctx     context.Context
	cancel  context.CancelFunc
	sigch   chan os.Signal
	endch   chan error
}

// newRunner creates a runner with the initialized values
func newRunner(ctx context.Context, s session) *Runner {
	ctx, cancel := context.WithCancel(ctx)

	return &Runner{
		session: s,
		ctx:     ctx,
		cancel:  cancel,
		sigch:   make(chan os.Signal, 1),
		endch:   make(chan error, 1),
	}
}

// Start starts the runner
func (r *Runner) Start() {
	r.handleSignals()

	go func() {
		err := r.session.Run(r.ctx)
		r.endch <- err
	}()
}

// RequestStop requests the stop of the session, which still reports what it has so far
func (r *Runner) RequestStop() {
	r.cancel()
}

// Wait blocks the caller until the runner finishes
func (r *Runner) Wait() error {
	err := <-r.endch
	signal.Stop(r.sigch)
	r.cancel()
	return err
}

// handleSignals stops the session on SIGINT or SIGTERM
func (r *Runner) handleSignals() {
	signal.Notify(r.sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-r.sigch:
			r.RequestStop()
		case <-r.ctx.Done():
		}
	}()
}
