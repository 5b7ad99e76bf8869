package cmd

import (
	"fmt"
	"io"

	"github.com/mikaelmello/pingtrace/core"
)

// compactPrinter writes a single character per echo request instead of a line.
type compactPrinter struct {
	out io.Writer
}

// register registers its callbacks to be called by the session
func (p *compactPrinter) register(s *core.PingSession) {
	s.AddRtHandler(p.printOnRoundTrip)
	s.AddEndHandler(p.printOnEnd)
}

func (p *compactPrinter) printOnRoundTrip(s *core.PingSession, out *core.Outcome) {
	if out.Kind == core.Success {
		fmt.Fprint(p.out, ".")
		return
	}
	fmt.Fprint(p.out, "x")
}

func (p *compactPrinter) printOnEnd(s *core.PingSession) {
	fmt.Fprintln(p.out)
	printStatistics(p.out, s.Stats)
}
