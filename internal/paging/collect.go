package paging

import "context"

// Collect drives c until the list is exhausted, a fetch fails, or maxPages
// pages have been requested by this call (maxPages <= 0 means no cap).
// It returns the final snapshot and the fetch error, if any. A controller
// closed before the list is exhausted yields context.Canceled.
func Collect[T any](ctx context.Context, c *Controller[T], maxPages int) (State[T], error) {
	watch, stop := context.WithCancel(ctx)
	defer stop()
	changes := c.Observe(watch)

	settle := func() (State[T], error) {
		for {
			st := c.State()
			if !st.Loading() {
				return st, nil
			}
			select {
			case _, ok := <-changes:
				if !ok {
					return c.State(), context.Canceled
				}
			case <-ctx.Done():
				return c.State(), ctx.Err()
			}
		}
	}

	st, err := settle()
	if err != nil {
		return st, err
	}
	for pages := 0; maxPages <= 0 || pages < maxPages; pages++ {
		if !st.HasMore {
			break
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if c.Closed() {
			return st, context.Canceled
		}
		c.LoadNextPage()
		if st, err = settle(); err != nil {
			return st, err
		}
		if st.Err != nil {
			return st, st.Err
		}
	}
	return st, st.Err
}
