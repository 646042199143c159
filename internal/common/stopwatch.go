package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it how long it has been running
// or if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	clock     Clock
	startTime time.Time
	Running   bool
}

func NewStopwatch(clock Clock, timeout time.Duration) Stopwatch {
	return Stopwatch{Timeout: timeout, clock: clock}
}

func (s *Stopwatch) Start() time.Time {
	s.Running = true
	s.startTime = s.clock.Now()
	return s.startTime
}

// Stop the stopwatch and return the time it was running
func (s *Stopwatch) Stop() time.Duration {
	elapsed := s.Elapsed()
	s.Running = false
	return elapsed
}

func (s *Stopwatch) StartTime() time.Time {
	return s.startTime
}

func (s *Stopwatch) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return s.clock.Now().Sub(s.startTime)
}

// Return the time elapsed since this stopwatch
// stopped (reached its timeout).
// Note that if the number is negative, the timeout still
// has not been reached
func (s *Stopwatch) TimeStopped() time.Duration {
	return s.clock.Now().Sub(s.startTime.Add(s.Timeout))
}

// A stopwatch is stopped when it is not running or its timeout has
// been reached. The second value is the time left until it stops
func (s *Stopwatch) Stopped() (bool, time.Duration) {
	if !s.Running {
		return true, 0
	}
	stopped := s.TimeStopped()
	if stopped >= 0 {
		return true, 0
	}
	return false, -stopped
}
