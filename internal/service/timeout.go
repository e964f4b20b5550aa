package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// withWriteTimeout runs fn under a deadline derived from ctx. A failure
// caused by that deadline (and not by the caller's own context) is reported
// as ErrPersistenceTimeout.
func withWriteTimeout(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(tctx)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s: %v", ErrPersistenceTimeout, op, timeout, err)
	}
	return err
}
