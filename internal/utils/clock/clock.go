package clock

import (
	"sync/atomic"
	"time"
)

// Clock supplies the logical time (unix seconds) risk records are stamped
// with. Injected so tests can pin it.
type Clock interface {
	Now() uint64
}

type systemClock struct{}

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Manual is a clock that only moves when told to.
type Manual struct {
	now atomic.Uint64
}

func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

func (m *Manual) Now() uint64 {
	return m.now.Load()
}

func (m *Manual) Advance(seconds uint64) {
	m.now.Add(seconds)
}
