package tracker

import "time"

// Timer is a cancellable single-shot timer handle
type Timer interface {
	Stop() bool
}

// Clock abstracts time so reconnect and debounce delays can be driven by tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock returns the wall-clock implementation backed by time.AfterFunc
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
