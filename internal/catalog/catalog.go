// Package catalog describes every list screen: its columns, the status
// values it can be filtered by, and how to build its page fetcher.
package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// FetcherFunc builds the page fetcher for a screen. The filter is captured.
type FetcherFunc func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem]

// Entry describes one list screen.
type Entry struct {
	Resource domain.Resource
	Title    string
	Headers  []string
	// Statuses are the status filter values, in cycle order. Empty means the
	// screen has no status filter.
	Statuses []string
	fetcher  FetcherFunc
}

// Fetcher returns a fetcher for this screen bound to f.
func (e Entry) Fetcher(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
	return e.fetcher(repo, f)
}

// NextStatus returns the status after current in the cycle. The cycle
// includes "" (no filter) before the first status.
func (e Entry) NextStatus(current string) string {
	if len(e.Statuses) == 0 {
		return ""
	}
	i := slices.Index(e.Statuses, current)
	if i == len(e.Statuses)-1 {
		return ""
	}
	return e.Statuses[i+1]
}

// AcceptsStatus reports whether s is a valid status filter for this screen.
func (e Entry) AcceptsStatus(s string) bool {
	return s == "" || slices.Contains(e.Statuses, s)
}

// bind adapts a typed repository method into a ListItem fetcher.
func bind[T domain.ListItem](list func(context.Context, domain.Filter, int, int) (paging.PageResult[T], error), f domain.Filter) paging.Fetcher[domain.ListItem] {
	var fetch paging.Fetcher[T] = func(ctx context.Context, page, size int) (paging.PageResult[T], error) {
		return list(ctx, f, page, size)
	}
	return paging.MapFetcher(fetch, func(item T) domain.ListItem { return item })
}

var entries = []Entry{
	{
		Resource: domain.ResourceUsers,
		Title:    "Users",
		Headers:  []string{"ID", "NAME", "EMAIL", "ROLE", "STATUS"},
		Statuses: []string{"active", "inactive"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListUsers, f)
		},
	},
	{
		Resource: domain.ResourceDevices,
		Title:    "Devices",
		Headers:  []string{"ID", "NAME", "SERIAL", "STATUS", "LAST SEEN"},
		Statuses: []string{"online", "offline", "maintenance"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListDevices, f)
		},
	},
	{
		Resource: domain.ResourceReports,
		Title:    "Reports",
		Headers:  []string{"ID", "TITLE", "STATUS", "SUBMITTED BY", "CREATED"},
		Statuses: []string{"open", "reviewing", "closed"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListReports, f)
		},
	},
	{
		Resource: domain.ResourceVerifications,
		Title:    "Verifications",
		Headers:  []string{"ID", "USER", "DEVICE", "RESULT", "SCORE", "AT"},
		Statuses: []string{"matched", "rejected"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListVerifications, f)
		},
	},
	{
		Resource: domain.ResourceHistory,
		Title:    "History",
		Headers:  []string{"ID", "ACTION", "USER", "DEVICE", "AT"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListHistory, f)
		},
	},
	{
		Resource: domain.ResourcePalmprints,
		Title:    "Palmprints",
		Headers:  []string{"ID", "USER", "HAND", "QUALITY", "STATUS"},
		Statuses: []string{"enrolled", "revoked"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListPalmprints, f)
		},
	},
	{
		Resource: domain.ResourceInstitutions,
		Title:    "Institutions",
		Headers:  []string{"ID", "NAME", "CODE", "STATUS"},
		Statuses: []string{"active", "inactive"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListInstitutions, f)
		},
	},
	{
		Resource: domain.ResourcePayments,
		Title:    "Payments",
		Headers:  []string{"ID", "INSTITUTION", "AMOUNT", "STATUS", "PAID"},
		Statuses: []string{"pending", "paid", "failed"},
		fetcher: func(repo domain.Repository, f domain.Filter) paging.Fetcher[domain.ListItem] {
			return bind(repo.ListPayments, f)
		},
	},
}

// All returns every entry in screen order.
func All() []Entry {
	return slices.Clone(entries)
}

// Lookup returns the entry for r.
func Lookup(r domain.Resource) (Entry, error) {
	for _, e := range entries {
		if e.Resource == r {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", domain.ErrUnknownResource, r)
}

// NewController builds a paging controller for the screen, filtered by f.
func (e Entry) NewController(ctx context.Context, repo domain.Repository, f domain.Filter, opts ...paging.Option) *paging.Controller[domain.ListItem] {
	opts = append([]paging.Option{
		paging.WithName(string(e.Resource)),
		paging.WithDedupe(domain.ListItem.GetID),
	}, opts...)
	return paging.New(ctx, e.Fetcher(repo, f), opts...)
}
