package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mikaelmello/pingtrace/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// probeOptions are the flags both tools have.
type probeOptions struct {
	timeout     int
	interval    float64
	dnsServer   string
	metricsFile string
}

func (o *probeOptions) bind(cmd *cobra.Command) {
	def := core.DefaultSettings()

	flags := cmd.Flags()
	flags.IntVarP(&o.timeout, "timeout", "W", def.Timeout, "time in seconds to wait for each reply")
	flags.Float64VarP(&o.interval, "interval", "i", def.Interval, "seconds between the start of two consecutive probes")
	flags.StringVar(&o.dnsServer, "dns-server", "", "query this DNS server instead of the system resolver")
	flags.StringVar(&o.metricsFile, "metrics-textfile", "", "write prometheus metrics to this file when done")
}

// apply overrides settings with the flags given on the command line only, so that the
// environment is used for the others.
func (o *probeOptions) apply(cmd *cobra.Command, s *core.Settings) {
	changed := cmd.Flags().Changed

	if changed("timeout") {
		s.Timeout = o.timeout
	}
	if changed("interval") {
		s.Interval = o.interval
	}
	if changed("dns-server") {
		s.DNSServer = o.dnsServer
	}
}

// sessionOptions are the options every session of a command is created with.
func (o *probeOptions) sessionOptions(logger *log.Logger, metrics *core.Metrics, extra []core.Option) []core.Option {
	opts := []core.Option{core.WithLogger(logger), core.WithMetrics(metrics)}
	return append(opts, extra...)
}

func (o *probeOptions) writeMetrics(metrics *core.Metrics, logger *log.Logger) error {
	if o.metricsFile == "" {
		return nil
	}

	logger.Debugf("Writing metrics to %s", o.metricsFile)
	if err := metrics.WriteTextfile(o.metricsFile); err != nil {
		return fmt.Errorf("could not write metrics to %s: %w", o.metricsFile, err)
	}
	return nil
}

// run runs s until it ends or a signal stops it.
func run(ctx context.Context, s session) error {
	r := newRunner(ctx, s)
	r.Start()
	return r.Wait()
}

// explain adds what to do about errors the user can fix.
func explain(err error) error {
	if errors.Is(err, core.ErrPrivilege) {
		return fmt.Errorf("%w, run as root or grant the CAP_NET_RAW capability", err)
	}
	return err
}

// retryable reports whether the prompts should be asked again after err.
func retryable(err error) bool {
	return errors.Is(err, errInvalidInput) ||
		errors.Is(err, core.ErrResolution) ||
		errors.Is(err, core.ErrInvalidSettings)
}

// promptLoop calls once until it succeeds, printing the errors it can recover from.
// It ends without error when the input or the context is done.
func promptLoop(ctx context.Context, out io.Writer, once func() error) error {
	for {
		err := once()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF):
			fmt.Fprintln(out)
			return nil
		case ctx.Err() != nil:
			return nil
		case retryable(err):
			fmt.Fprintln(out, err)
		default:
			return err
		}
	}
}
