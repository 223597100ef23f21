package ld2410

import "time"

// RetryPolicy bounds how the lowest send layer handles transport failures.
// The zero value retries forever with no backoff: a permanently broken
// transport keeps the caller blocked rather than surfacing a fault. Callers
// that would rather fail can inject a bounded policy.
type RetryPolicy struct {
	// MaxAttempts is the number of attempts before giving up.
	// Zero means retry forever.
	MaxAttempts int

	// Backoff is slept between attempts.
	Backoff time.Duration
}

// RetryForever is the default policy.
var RetryForever = RetryPolicy{}

// allows reports whether another attempt may follow the given one.
func (p RetryPolicy) allows(attempt int) bool {
	return p.MaxAttempts == 0 || attempt < p.MaxAttempts
}

func (p RetryPolicy) wait() {
	if p.Backoff > 0 {
		time.Sleep(p.Backoff)
	}
}
