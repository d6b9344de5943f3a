package places

import "sync"

// ActivityReporter is told when network work starts and ends.
type ActivityReporter interface {
	Begin()
	End()
}

type noopActivity struct{}

func (noopActivity) Begin() {}
func (noopActivity) End()   {}

// ActivityCounter folds overlapping Begin/End pairs into a single on/off
// signal. onChange runs with the counter locked and must not call back into it.
type ActivityCounter struct {
	mu       sync.Mutex
	active   int
	onChange func(active bool)
}

// NewActivityCounter creates a counter reporting transitions to onChange.
func NewActivityCounter(onChange func(active bool)) *ActivityCounter {
	return &ActivityCounter{onChange: onChange}
}

// Begin records the start of one unit of network work.
func (c *ActivityCounter) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active++
	if c.active == 1 && c.onChange != nil {
		c.onChange(true)
	}
}

// End records the end of one unit of network work. Unmatched calls are ignored.
func (c *ActivityCounter) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		return
	}
	c.active--
	if c.active == 0 && c.onChange != nil {
		c.onChange(false)
	}
}

// Active reports whether any network work is outstanding.
func (c *ActivityCounter) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active > 0
}
