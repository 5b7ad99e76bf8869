package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewStatistics tests if a new statistics struct is properly initialized
func TestNewStatistics(t *testing.T) {
	stats := NewStatistics()

	assert.Zero(t, stats.PktLoss())
	assert.Zero(t, stats.SuccessRate())
	assert.Zero(t, stats.RTTAvg())
	assert.Zero(t, stats.RTTMax)
	assert.Zero(t, stats.RTTMin)
	assert.Zero(t, stats.TotalSent)
	assert.Zero(t, stats.TotalRecv)
	assert.Zero(t, stats.TotalLost)
}

// TestStatisticsSessionTimes tests that start and end times are recorded in order
func TestStatisticsSessionTimes(t *testing.T) {
	stats := NewStatistics()
	before := time.Now()

	stats.SessionStarted()
	stats.SessionEnded()

	assert.False(t, stats.StTime.Before(before))
	assert.False(t, stats.EndTime.Before(stats.StTime))
}

// TestStatisticsRecord tests the aggregation of a known sequence of outcomes
func TestStatisticsRecord(t *testing.T) {
	stats := NewStatistics()

	for _, d := range []time.Duration{10, 20, 15, 5} {
		stats.Record(&Outcome{Kind: Success, Delay: d * time.Millisecond})
	}
	stats.Record(&Outcome{Kind: Timeout, Delay: time.Second})
	stats.Record(&Outcome{Kind: TTLExceeded})
	stats.Record(&Outcome{Kind: Unreachable})

	assert.Equal(t, 7, stats.TotalSent)
	assert.Equal(t, 4, stats.TotalRecv)
	assert.Equal(t, 3, stats.TotalLost)
	assert.Equal(t, 1, stats.TotalTTLExpired)
	assert.Equal(t, 1, stats.TotalUnreachable)
	assert.Equal(t, 5*time.Millisecond, stats.RTTMin)
	assert.Equal(t, 20*time.Millisecond, stats.RTTMax)
	assert.Equal(t, 12500*time.Microsecond, stats.RTTAvg())
	assert.InDelta(t, 400.0/7, stats.SuccessRate(), 1e-9)
	assert.InDelta(t, 3.0/7, stats.PktLoss(), 1e-9)
}

// TestStatisticsInvariants records random outcomes and checks the invariants after each one
func TestStatisticsInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	stats := NewStatistics()

	var delays []time.Duration
	kinds := []OutcomeKind{Success, Timeout, TTLExceeded, Unreachable}
	for i := 1; i <= 500; i++ {
		out := &Outcome{Kind: kinds[r.Intn(len(kinds))], Delay: time.Duration(r.Int63n(int64(time.Second)))}
		stats.Record(out)
		if out.Kind == Success {
			delays = append(delays, out.Delay)
		}

		assert.Equal(t, i, stats.TotalSent)
		assert.Equal(t, stats.TotalSent, stats.TotalRecv+stats.TotalLost)
	}

	assert.Equal(t, len(delays), stats.TotalRecv)
	for _, d := range delays {
		assert.LessOrEqual(t, stats.RTTMin, d)
		assert.GreaterOrEqual(t, stats.RTTMax, d)
	}
}

// TestStatisticsNoSuccess tests that a session without replies has no rtt figures
func TestStatisticsNoSuccess(t *testing.T) {
	stats := NewStatistics()
	for i := 0; i < 3; i++ {
		stats.Record(&Outcome{Kind: Timeout, Delay: time.Second})
	}

	assert.Equal(t, 3, stats.TotalLost)
	assert.Zero(t, stats.RTTAvg())
	assert.Zero(t, stats.RTTMin)
	assert.Zero(t, stats.RTTMax)
	assert.Zero(t, stats.SuccessRate())
	assert.Equal(t, 1.0, stats.PktLoss())
}
