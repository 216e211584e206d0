package ports

import "time"

// Clock abstracts wall-clock reads so lockout windows can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
