package cmd

import (
	"context"
	"io"

	"github.com/mikaelmello/pingtrace/core"
	"github.com/spf13/cobra"
)

type traceOptions struct {
	probeOptions

	maxHops int
	resolve bool
}

func newTraceCmd(g *globalOptions) *cobra.Command {
	o := &traceOptions{}

	cmd := &cobra.Command{
		Use:     "traceroute [host]",
		Aliases: []string{"trace"},
		Short:   "Print the route ICMP packets take to a host",
		Long: "Send ICMP echo requests with an increasing time to live and print every router " +
			"that reports their expiry. Without a host, the host and timeout are prompted for.",
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
	cmd.Flags().IntVarP(&o.maxHops, "max-hops", "m", def.MaxHops, "time to live bound, hops 1 to max-hops-1 are probed")
	cmd.Flags().BoolVar(&o.resolve, "resolve", false, "reverse resolve the address of every hop")

	return cmd
}

func (o *traceOptions) apply(cmd *cobra.Command, s *core.Settings) {
	o.probeOptions.apply(cmd, s)

	changed := cmd.Flags().Changed
	if changed("max-hops") {
		s.MaxHops = o.maxHops
	}
	if changed("resolve") {
		s.ResolveHops = o.resolve
	}
}

// prompt asks for the host and timeout, then traces.
func (o *traceOptions) prompt(ctx context.Context, p *prompter, base *core.Settings, extra []core.Option) error {
	host, err := p.askHost()
	if err != nil {
		return err
	}
	timeout, err := p.askInt(timeoutPrompt)
	if err != nil {
		return err
	}

	settings := *base
	settings.Timeout = timeout

	return o.run(ctx, p.out, host, &settings, extra)
}

// run traces the route to host and prints every hop to out.
func (o *traceOptions) run(ctx context.Context, out io.Writer, host string, settings *core.Settings, extra []core.Option) error {
	logger := core.NewLogger(settings.LoggingLevel)
	metrics := core.NewMetrics()

	session, err := core.NewTraceSession(ctx, host, settings, o.sessionOptions(logger, metrics, extra)...)
	if err != nil {
		return err
	}

	(&tracePrinter{out: out}).register(session)

	if err := run(ctx, session); err != nil {
		return err
	}
	return o.writeMetrics(metrics, logger)
}
