package paging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Controller accumulates the pages of one remote list.
//
// LoadNextPage and Refresh return immediately; the fetch runs on its own
// goroutine and its outcome is published to observers. A controller is bound
// to the context it was created with: cancelling that context, or calling
// Close, cancels any in-flight fetch and closes every observer stream.
type Controller[T any] struct {
	fetch    Fetcher[T]
	pageSize int
	policy   FailurePolicy
	key      func(any) string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      State[T]
	cursor     int
	generation uint64
	abort      context.CancelFunc // cancels the in-flight fetch
	seen       map[string]struct{}
	observers  map[int]chan State[T]
	nextObs    int
	closed     bool
}

// New creates an idle controller. Nothing is fetched until Refresh or
// LoadNextPage is called.
func New[T any](ctx context.Context, fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{
		pageSize: DefaultPageSize,
		policy:   PreserveOnError,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if o.name != "" {
		logger = logger.With("list", o.name)
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Controller[T]{
		fetch:     fetch,
		pageSize:  o.pageSize,
		policy:    o.policy,
		key:       o.key,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     State[T]{HasMore: true, Page: 1},
		cursor:    1,
		observers: make(map[int]chan State[T]),
	}
	if c.key != nil {
		c.seen = make(map[string]struct{})
	}
	context.AfterFunc(ctx, c.shutdown)
	return c
}

// PageSize returns the number of items requested per page.
func (c *Controller[T]) PageSize() int {
	return c.pageSize
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Refresh discards everything loaded so far and fetches page 1 again.
// A fetch still in flight is cancelled and its result ignored.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if c.abort != nil {
		c.abort()
		c.abort = nil
	}
	c.generation++
	c.cursor = 1
	if c.seen != nil {
		clear(c.seen)
	}
	c.state = State[T]{Items: []T{}, HasMore: true, Page: 1}
	c.logger.Debug("refreshing list", "generation", c.generation)

	c.loadLocked()
}

// LoadNextPage fetches the page after the last one loaded. It does nothing
// while a fetch is in flight or once the end of the list has been reached.
func (c *Controller[T]) LoadNextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.loadLocked()
}

func (c *Controller[T]) loadLocked() {
	if c.state.Loading() || !c.state.HasMore {
		return
	}

	page := c.cursor
	if page == 1 {
		c.state.LoadingInitial = true
	} else {
		c.state.LoadingMore = true
	}
	c.state.Error = ""
	c.state.Err = nil
	c.publishLocked()

	ctx, abort := context.WithCancel(c.ctx)
	c.abort = abort
	gen := c.generation

	c.logger.Debug("fetching page", "page", page, "size", c.pageSize, "generation", gen)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer abort()
		res, err := c.safeFetch(ctx, page)
		c.complete(gen, page, res, err)
	}()
}

func (c *Controller[T]) safeFetch(ctx context.Context, page int) (res PageResult[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch page %d: panic: %v", page, r)
		}
	}()
	return c.fetch(ctx, page, c.pageSize)
}

func (c *Controller[T]) complete(gen uint64, page int, res PageResult[T], err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.ctx.Err() != nil {
		return
	}
	if gen != c.generation {
		c.logger.Debug("discarding stale page", "page", page, "generation", gen, "current", c.generation)
		return
	}
	c.abort = nil
	c.state.LoadingInitial = false
	c.state.LoadingMore = false
	c.state.fetched = true

	if err != nil {
		c.failLocked(page, err)
		c.publishLocked()
		return
	}

	items := c.filterLocked(page, res.Items)
	if page == 1 {
		c.state.Items = items
	} else {
		c.state.Items = append(c.state.Items, items...)
	}

	if res.TotalPages > 0 {
		c.state.HasMore = page < res.TotalPages
	} else {
		c.state.HasMore = len(res.Items) >= c.pageSize
	}
	c.state.Pages++
	if c.state.HasMore {
		c.cursor = page + 1
	}
	c.state.Page = c.cursor

	c.logger.Debug("page loaded",
		"page", page,
		"received", len(res.Items),
		"total", len(c.state.Items),
		"totalPages", res.TotalPages,
		"hasMore", c.state.HasMore,
	)
	c.publishLocked()
}

func (c *Controller[T]) failLocked(page int, err error) {
	c.state.Error = Message(err)
	c.state.Err = err
	if c.policy == StopOnError {
		c.state.HasMore = false
	}
	c.logger.Warn("page fetch failed",
		"page", page,
		"kind", KindOf(c.state.Err).String(),
		"policy", c.policy.String(),
		"error", err,
	)
}

func (c *Controller[T]) filterLocked(page int, items []T) []T {
	if c.key == nil {
		return items
	}
	kept := items[:0:0]
	for i, item := range items {
		k, ok := c.safeKey(item)
		if !ok {
			c.logger.Warn("dropping item without a key", "page", page, "index", i)
			continue
		}
		if _, dup := c.seen[k]; dup {
			continue
		}
		c.seen[k] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}

// safeKey runs the dedupe key, treating a panic (a nil item) as no key.
func (c *Controller[T]) safeKey(item T) (k string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return c.key(item), true
}

// Observe returns a stream of snapshots. The current snapshot is delivered
// first; a slow reader only ever sees the latest one. The stream closes when
// ctx is done or the controller is closed.
func (c *Controller[T]) Observe(ctx context.Context) <-chan State[T] {
	ch := make(chan State[T], 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	id := c.nextObs
	c.nextObs++
	c.observers[id] = ch
	ch <- c.state.clone()
	c.mu.Unlock()

	context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if obs, ok := c.observers[id]; ok {
			delete(c.observers, id)
			close(obs)
		}
	})
	return ch
}

func (c *Controller[T]) publishLocked() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.state.clone()
	for _, ch := range c.observers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close cancels any in-flight fetch, closes all observer streams and waits
// for fetch goroutines to return.
func (c *Controller[T]) Close() {
	c.cancel()
	c.shutdown()
	c.wg.Wait()
}

// Closed reports whether the controller has been closed, either by Close or
// by its context ending. A closed controller never fetches again.
func (c *Controller[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller[T]) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}
	// The cancelled fetch never completes, so nothing is loading any more.
	c.state.LoadingInitial = false
	c.state.LoadingMore = false
	for id, ch := range c.observers {
		delete(c.observers, id)
		close(ch)
	}
	c.logger.Debug("list closed", "items", len(c.state.Items))
}
