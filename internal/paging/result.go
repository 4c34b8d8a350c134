package paging

import "context"

// PageResult is the output of one successful page fetch.
type PageResult[T any] struct {
	Items      []T
	TotalPages int // 0 when the server does not report a page count
}

// Fetcher loads one page. page is 1-based.
// Filters and other fixed parameters are captured when the fetcher is built.
type Fetcher[T any] func(ctx context.Context, page, size int) (PageResult[T], error)

// MapFetcher adapts a Fetcher[T] into a Fetcher[U] by converting every item.
func MapFetcher[T, U any](fetch Fetcher[T], convert func(T) U) Fetcher[U] {
	return func(ctx context.Context, page, size int) (PageResult[U], error) {
		res, err := fetch(ctx, page, size)
		if err != nil {
			return PageResult[U]{}, err
		}
		items := make([]U, len(res.Items))
		for i, item := range res.Items {
			items[i] = convert(item)
		}
		return PageResult[U]{Items: items, TotalPages: res.TotalPages}, nil
	}
}
