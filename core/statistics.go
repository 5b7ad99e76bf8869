package core

import (
	"time"
)

// Statistics aggregate stats about a ping session. It is updated between probes only.
type Statistics struct {
	// TotalSent is the total amount of echo requests sent in this session.
	TotalSent int

	// TotalRecv is the total amount of echo requests that were successfully replied.
	TotalRecv int

	// TotalLost is the total amount of echo requests that timed out, expired or were unreachable.
	TotalLost int

	// TotalTTLExpired is the total amount of echo requests that had their TTL expired before reaching the target.
	TotalTTLExpired int

	// TotalUnreachable is the total amount of echo requests answered with destination unreachable.
	TotalUnreachable int

	// RTTMin contains the smallest encountered rtt
	RTTMin time.Duration

	// RTTMax contains the largest encountered rtt
	RTTMax time.Duration

	// RTTSum contains the sum of all rtts, used for the average
	RTTSum time.Duration

	// StTime contains the start time of the session
	StTime time.Time

	// EndTime contains the end time of the session
	EndTime time.Time
}

// NewStatistics creates and initializes a Statistics struct.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// SessionStarted records the start time of the session.
func (s *Statistics) SessionStarted() {
	s.StTime = time.Now()
}

// SessionEnded records the end time of the session.
func (s *Statistics) SessionEnded() {
	s.EndTime = time.Now()
}

// Record accounts for the outcome of one probe.
func (s *Statistics) Record(out *Outcome) {
	s.TotalSent++

	if out.Kind != Success {
		s.TotalLost++
		switch out.Kind {
		case TTLExceeded:
			s.TotalTTLExpired++
		case Unreachable:
			s.TotalUnreachable++
		}
		return
	}

	s.TotalRecv++
	if s.TotalRecv == 1 || out.Delay < s.RTTMin {
		s.RTTMin = out.Delay
	}
	if out.Delay > s.RTTMax {
		s.RTTMax = out.Delay
	}
	s.RTTSum += out.Delay
}

// RTTAvg returns the average rtt of the successful probes, zero if there are none.
func (s *Statistics) RTTAvg() time.Duration {
	if s.TotalRecv == 0 {
		return 0
	}
	return s.RTTSum / time.Duration(s.TotalRecv)
}

// SuccessRate returns the percentage of probes that succeeded.
func (s *Statistics) SuccessRate() float64 {
	if s.TotalSent == 0 {
		return 0
	}
	return float64(s.TotalRecv) / float64(s.TotalSent) * 100
}

// PktLoss returns the fraction of probes that were lost.
func (s *Statistics) PktLoss() float64 {
	if s.TotalSent == 0 {
		return 0
	}
	return float64(s.TotalLost) / float64(s.TotalSent)
}
