package shutdown

import (
	"context"
)

// Token is handed to every task and resolves once the coordinator asks the
// task to wind down. Task bodies race Done against their own work and return
// promptly once it fires. A resolved Token stays resolved.
type Token struct {
	ctx context.Context
}

// trigger is the coordinator-held side of a Token. Firing and releasing are
// the same operation: both resolve the Token for good.
type trigger struct {
	cancel context.CancelCauseFunc
}

func newToken() (Token, trigger) {
	ctx, cancel := context.WithCancelCause(context.Background())
	return Token{ctx: ctx}, trigger{cancel: cancel}
}

// release resolves the paired Token. Safe to call more than once.
func (t trigger) release() {
	t.cancel(ErrShutdownRequested)
}

// Done returns a channel that is closed when the task should shut down.
func (t Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Resolved reports whether shutdown has been requested.
func (t Token) Resolved() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// Wait blocks until shutdown is requested.
func (t Token) Wait() {
	<-t.ctx.Done()
}

// Err returns ErrShutdownRequested once the Token is resolved, nil before.
func (t Token) Err() error {
	if !t.Resolved() {
		return nil
	}
	return context.Cause(t.ctx)
}

// Context returns a context that is cancelled when the Token resolves, for
// APIs that stop on cancellation such as exec.CommandContext.
func (t Token) Context() context.Context {
	return t.ctx
}
