package tests

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("timeout")

// RetryUntilTimeout calls f until it reports no retry is needed or the context expires
func RetryUntilTimeout(ctx context.Context, f func() (interface{}, bool)) (interface{}, error) {
	type result struct {
		data interface{}
		err  error
	}

	resCh := make(chan result, 1)

	go func() {
		defer close(resCh)

		for {
			select {
			case <-ctx.Done():
				resCh <- result{nil, ErrTimeout}

				return
			default:
				res, retry := f()
				if !retry {
					resCh <- result{res, nil}

					return
				}
			}
			time.Sleep(200 * time.Millisecond)
		}
	}()

	res := <-resCh

	return res.data, res.err
}
