package application

import "time"

// fetchThrottle suppresses repeated remote profile reads inside a cooldown
// window. New logins always pass; an explicit refresh resets the timestamp
// so the next read passes exactly once. Callers hold the engine lock.
type fetchThrottle struct {
	cooldown time.Duration
	last     time.Time
	now      func() time.Time
}

func (t *fetchThrottle) shouldFetch(isNewLogin bool) bool {
	if isNewLogin {
		return true
	}
	return t.last.IsZero() || t.now().Sub(t.last) >= t.cooldown
}

func (t *fetchThrottle) markFetched() {
	t.last = t.now()
}

func (t *fetchThrottle) reset() {
	t.last = time.Time{}
}
