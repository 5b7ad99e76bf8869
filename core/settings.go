package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// envPrefix is the prefix of every environment variable read by LoadSettings
const envPrefix = "PINGTRACE_"

// ErrInvalidSettings is returned when settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings contains all configurable properties of a ping or traceroute session.
type Settings struct {
	// Count is the amount of echo requests sent by a ping session.
	Count int

	// Timeout is the time in seconds to wait for the answer of each request.
	Timeout int

	// Interval is the interval in seconds between two consecutive requests.
	Interval float64

	// TTL is the IP time to live of ping requests.
	TTL int

	// MaxHops bounds the traceroute, which probes ttl 1 up to MaxHops-1.
	MaxHops int

	// DNSServer, when set, is queried directly instead of the system resolver.
	DNSServer string

	// ResolveHops defines if traceroute hops are reverse resolved.
	ResolveHops bool

	// LoggingLevel is the logrus level of the session logger.
	LoggingLevel uint32
}

// DefaultSettings returns the default settings for a session, change as you wish.
func DefaultSettings() *Settings {
	return &Settings{
		Count:        4,
		Timeout:      2,
		Interval:     1,
		TTL:          defaultTTL,
		MaxHops:      30,
		DNSServer:    "",
		ResolveHops:  false,
		LoggingLevel: uint32(log.WarnLevel),
	}
}

// LoadSettings returns the default settings overridden by PINGTRACE_* environment variables.
func LoadSettings() (*Settings, error) {
	s := DefaultSettings()

	var err error
	if s.Count, err = getEnvInt("COUNT", s.Count); err != nil {
		return nil, err
	}
	if s.Timeout, err = getEnvInt("TIMEOUT", s.Timeout); err != nil {
		return nil, err
	}
	if s.TTL, err = getEnvInt("TTL", s.TTL); err != nil {
		return nil, err
	}
	if s.MaxHops, err = getEnvInt("MAX_HOPS", s.MaxHops); err != nil {
		return nil, err
	}
	if s.Interval, err = getEnvFloat("INTERVAL", s.Interval); err != nil {
		return nil, err
	}
	if s.ResolveHops, err = getEnvBool("RESOLVE_HOPS", s.ResolveHops); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(envPrefix + "DNS_SERVER"); ok {
		s.DNSServer = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		level, err := log.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %sLOG_LEVEL: %s", ErrInvalidSettings, envPrefix, err)
		}
		s.LoggingLevel = uint32(level)
	}

	return s, nil
}

// TimeoutDuration returns the timeout setting parsed as a duration in seconds.
func (s *Settings) TimeoutDuration() time.Duration {
	return time.Second * time.Duration(s.Timeout)
}

// IntervalDuration returns the interval setting parsed as a duration in seconds.
func (s *Settings) IntervalDuration() time.Duration {
	return time.Duration(float64(time.Second) * s.Interval)
}

func (s *Settings) validate() error {
	if s.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidSettings, s.Count)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %d", ErrInvalidSettings, s.Timeout)
	}
	if s.Interval < 0 || s.Interval > float64(time.Hour)/float64(time.Second) {
		return fmt.Errorf("%w: interval must be between 0 and 3600 seconds, got %g", ErrInvalidSettings, s.Interval)
	}
	if s.TTL <= 0 || s.TTL > 255 {
		return fmt.Errorf("%w: ttl must be between 1 and 255, got %d", ErrInvalidSettings, s.TTL)
	}
	if s.MaxHops < 2 || s.MaxHops > 256 {
		return fmt.Errorf("%w: max hops must be between 2 and 256, got %d", ErrInvalidSettings, s.MaxHops)
	}
	return nil
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s: %s", ErrInvalidSettings, envPrefix, key, err)
	}
	return i, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s: %s", ErrInvalidSettings, envPrefix, key, err)
	}
	return f, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s%s: %s", ErrInvalidSettings, envPrefix, key, err)
	}
	return b, nil
}
