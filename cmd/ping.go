package cmd

import (
	"context"
	"io"

	"github.com/mikaelmello/pingtrace/core"
	"github.com/spf13/cobra"
)

type pingOptions struct {
	probeOptions

	count   int
	ttl     int
	compact bool
}

func newPingCmd(g *globalOptions) *cobra.Command {
	o := &pingOptions{}

	cmd := &cobra.Command{
		Use:   "ping [host]",
		Short: "Send ICMP echo requests to a host",
		Long: "Send ICMP echo requests to a host and report the delay of every reply. " +
			"Without a host, the host, count and timeout are prompted for.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := g.settings()
			if err != nil {
				return err
			}
			o.apply(cmd, settings)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				return explain(o.run(ctx, out, args[0], settings, g.sessionOpts))
			}

			p := newPrompter(cmd.InOrStdin(), out)
			return explain(promptLoop(ctx, out, func() error {
				return o.prompt(ctx, p, settings, g.sessionOpts)
			}))
		},
	}

	def := core.DefaultSettings()
	o.bind(cmd)
	cmd.Flags().IntVarP(&o.count, "count", "c", def.Count, "number of echo requests to send")
	cmd.Flags().IntVar(&o.ttl, "ttl", def.TTL, "IP time to live of the echo requests")
	cmd.Flags().BoolVar(&o.compact, "compact", false, "print one character per echo request")

	return cmd
}

func (o *pingOptions) apply(cmd *cobra.Command, s *core.Settings) {
	o.probeOptions.apply(cmd, s)

	changed := cmd.Flags().Changed
	if changed("count") {
		s.Count = o.count
	}
	if changed("ttl") {
		s.TTL = o.ttl
	}
}

// prompt asks for the host, count and timeout, then pings.
func (o *pingOptions) prompt(ctx context.Context, p *prompter, base *core.Settings, extra []core.Option) error {
	host, err := p.askHost()
	if err != nil {
		return err
	}
	count, err := p.askInt(countPrompt)
	if err != nil {
		return err
	}
	timeout, err := p.askInt(timeoutPrompt)
	if err != nil {
		return err
	}

	settings := *base
	settings.Count = count
	settings.Timeout = timeout

	return o.run(ctx, p.out, host, &settings, extra)
}

// run pings host and prints every round trip and the statistics to out.
func (o *pingOptions) run(ctx context.Context, out io.Writer, host string, settings *core.Settings, extra []core.Option) error {
	logger := core.NewLogger(settings.LoggingLevel)
	metrics := core.NewMetrics()

	session, err := core.NewPingSession(ctx, host, settings, o.sessionOptions(logger, metrics, extra)...)
	if err != nil {
		return err
	}

	if o.compact {
		(&compactPrinter{out: out}).register(session)
	} else {
		(&pingPrinter{out: out}).register(session)
	}

	if err := run(ctx, session); err != nil {
		return err
	}
	return o.writeMetrics(metrics, logger)
}
