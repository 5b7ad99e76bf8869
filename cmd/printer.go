package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/mikaelmello/pingtrace/core"
)

// pingPrinter writes the outcome of every echo request and the final statistics.
type pingPrinter struct {
	out io.Writer
}

// register registers its callbacks to be called by the session
func (p *pingPrinter) register(s *core.PingSession) {
	s.AddRtHandler(p.printOnRoundTrip)
	s.AddEndHandler(p.printOnEnd)
}

func (p *pingPrinter) printOnRoundTrip(s *core.PingSession, out *core.Outcome) {
	switch out.Kind {
	case core.Success:
		fmt.Fprintf(p.out, "Receive from: %s, delay = %dms\n", out.Responder, out.Delay.Milliseconds())
	case core.Unreachable:
		fmt.Fprintln(p.out, "Fail to connect. Target net/host/port/protocol is unreachable.")
	default:
		fmt.Fprintln(p.out, "Fail to connect. Request overtime.")
	}
}

func (p *pingPrinter) printOnEnd(s *core.PingSession) {
	printStatistics(p.out, s.Stats)
}

func printStatistics(w io.Writer, stats *core.Statistics) {
	if stats.TotalRecv == 0 {
		fmt.Fprintf(w, "\nSend: %d, success: %d, lost: %d, rate of success: 0.0%%\n",
			stats.TotalSent, stats.TotalRecv, stats.TotalLost)
		return
	}

	fmt.Fprintf(w, "\nSend: %d, success: %d, lost: %d, rate of success: %.1f%%.\n",
		stats.TotalSent, stats.TotalRecv, stats.TotalLost, stats.SuccessRate())
	fmt.Fprintf(w, "MaxTime = %dms, MinTime = %dms, AvgTime = %dms\n",
		stats.RTTMax.Milliseconds(), stats.RTTMin.Milliseconds(), stats.RTTAvg().Milliseconds())
}

// tracePrinter writes one line per hop.
type tracePrinter struct {
	out io.Writer
}

// register registers its callbacks to be called by the session
func (p *tracePrinter) register(s *core.TraceSession) {
	s.AddStHandler(p.printOnStart)
	s.AddHopHandler(p.printOnHop)
	s.AddEndHandler(p.printOnEnd)
}

func (p *tracePrinter) printOnStart(s *core.TraceSession) {
	fmt.Fprintf(p.out, "traceroute to %s (%s), %d hops max\n", s.Host(), s.Address(), s.Settings().MaxHops)
}

func (p *tracePrinter) printOnHop(s *core.TraceSession, hop *core.Hop) {
	if hop.Outcome.Kind == core.Timeout {
		fmt.Fprintf(p.out, "%d\t*\tRequest timed out.\n", hop.TTL)
		return
	}

	addr := hop.Outcome.Responder.String()
	if hop.Name != "" {
		addr = fmt.Sprintf("%s (%s)", addr, hop.Name)
	}

	delay := float64(hop.Outcome.Delay) / float64(time.Millisecond)
	fmt.Fprintf(p.out, "%d\t%s\t%.4f ms\n", hop.TTL, addr, delay)
}

func (p *tracePrinter) printOnEnd(s *core.TraceSession) {
	result := s.Result()
	switch {
	case result.Unreachable:
		fmt.Fprintf(p.out, "Destination %s is unreachable.\n", s.Address())
	case result.MaxHopsReached:
		fmt.Fprintf(p.out, "Max hops (%d) reached without reaching %s.\n", s.Settings().MaxHops, s.Address())
	}
}
