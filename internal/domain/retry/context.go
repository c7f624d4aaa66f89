// internal/domain/retry/context.go
package retry

import (
	"fmt"
	"time"
)

// Policy is the retry budget of one kind of backend call.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// Notice is emitted to the observer right before each backoff wait.
type Notice struct {
	Retries           int // retries so far in this operation, including this one
	AttemptsRemaining int // retries left after this one
	Backoff           time.Duration
	Err               error // failure of the attempt that triggered the retry
}

// Text is the waiting message shown to the user.
func (n Notice) Text() string {
	return fmt.Sprintf("접속량이 많아 대기 중입니다... (%d회 재시도)", n.Retries)
}

// Context carries retry bookkeeping for one logical user operation.
// A fresh Context is created at the start of every operation and passed by
// pointer to the request client, which is its only writer while the call runs.
type Context struct {
	AttemptsRemaining int
	Backoff           time.Duration
	Retries           int
	Observer          func(Notice)
}

// NewContext returns a context with the given observer (which may be nil).
func NewContext(observer func(Notice)) *Context {
	return &Context{Observer: observer}
}

// Reset clears the counters for a new logical operation, keeping the observer.
func (c *Context) Reset() {
	c.AttemptsRemaining = 0
	c.Backoff = 0
	c.Retries = 0
}

// Retried reports whether at least one retry happened.
func (c *Context) Retried() bool {
	return c != nil && c.Retries > 0
}

func (c *Context) notify(n Notice) {
	if c.Observer != nil {
		c.Observer(n)
	}
}

// RecordRetry increments the retry count and notifies the observer.
func (c *Context) RecordRetry(backoff time.Duration, err error) Notice {
	c.Retries++
	n := Notice{
		Retries:           c.Retries,
		AttemptsRemaining: c.AttemptsRemaining - 1,
		Backoff:           backoff,
		Err:               err,
	}
	c.notify(n)
	return n
}
