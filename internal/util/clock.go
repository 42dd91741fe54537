package util

import (
	"time"

	"github.com/go-authgate/tokenserver/internal/core"
)

var (
	_ core.Clock = SystemClock{}
	_ core.Clock = ClockFunc(nil)
)

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to core.Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) ClockFunc {
	return func() time.Time { return t }
}
