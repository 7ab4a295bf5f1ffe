package queue

import "sync/atomic"

// Token is a one-shot cooperative cancellation flag. The composition root
// creates it and threads it into every blocking call; once set it stays set
// for the lifetime of the pool, and every current and future blocked wait
// aborts within one poll interval.
type Token struct {
	canceled atomic.Bool
}

// NewToken returns an unset token.
func NewToken() *Token {
	return &Token{}
}

// Cancel sets the flag. Safe to call more than once.
func (t *Token) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether the flag is set.
func (t *Token) Canceled() bool {
	return t.canceled.Load()
}
