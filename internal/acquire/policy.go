package acquire

import "time"

// Clock abstracts time so poll loops run instantly under test.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RetryPolicy bounds a poll loop: one check per Interval until Ceiling has
// elapsed.
type RetryPolicy struct {
	Interval time.Duration
	Ceiling  time.Duration
}

// DefaultPolicy checks every 2 seconds for up to maxWaitSeconds.
func DefaultPolicy(maxWaitSeconds int) RetryPolicy {
	return RetryPolicy{
		Interval: 2 * time.Second,
		Ceiling:  time.Duration(maxWaitSeconds) * time.Second,
	}
}
