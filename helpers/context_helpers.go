package helpers

import "context"

// IgnoreContext runs fn unless ctx is already done. fn itself is not interruptible.
func IgnoreContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

type result struct {
	data    []byte
	version uint64
	err     error
}

// RunWithContext runs a blocking read in its own goroutine and returns early
// with ctx.Err() when ctx is done first. The read keeps running to completion
// in the background and its result is dropped.
func RunWithContext(ctx context.Context, fn func() ([]byte, uint64, error)) ([]byte, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	done := make(chan result, 1)
	go func() {
		data, version, err := fn()
		done <- result{data, version, err}
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-done:
		return res.data, res.version, res.err
	}
}
