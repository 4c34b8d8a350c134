package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// fakeRepo answers every list with one item and records the last call.
type fakeRepo struct {
	method string
	filter domain.Filter
	page   int
	size   int
}

func record[T any](r *fakeRepo, method string, f domain.Filter, page, size int, item T) (paging.PageResult[T], error) {
	r.method, r.filter, r.page, r.size = method, f, page, size
	return paging.PageResult[T]{Items: []T{item}, TotalPages: 1}, nil
}

func (r *fakeRepo) ListUsers(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.User], error) {
	return record(r, "users", f, page, size, &domain.User{ID: "u1"})
}

func (r *fakeRepo) ListDevices(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Device], error) {
	return record(r, "devices", f, page, size, &domain.Device{ID: "d1"})
}

func (r *fakeRepo) ListReports(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Report], error) {
	return record(r, "reports", f, page, size, &domain.Report{ID: "r1"})
}

func (r *fakeRepo) ListVerifications(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Verification], error) {
	return record(r, "verifications", f, page, size, &domain.Verification{ID: "v1"})
}

func (r *fakeRepo) ListHistory(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.HistoryEntry], error) {
	return record(r, "history", f, page, size, &domain.HistoryEntry{ID: "h1"})
}

func (r *fakeRepo) ListPalmprints(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Palmprint], error) {
	return record(r, "palmprints", f, page, size, &domain.Palmprint{ID: "p1"})
}

func (r *fakeRepo) ListInstitutions(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Institution], error) {
	return record(r, "institutions", f, page, size, &domain.Institution{ID: "i1"})
}

func (r *fakeRepo) ListPayments(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Payment], error) {
	return record(r, "payments", f, page, size, &domain.Payment{ID: "pay1"})
}

func TestEveryResourceHasAnEntry(t *testing.T) {
	all := All()
	require.Len(t, all, len(domain.Resources()))
	for i, r := range domain.Resources() {
		assert.Equal(t, r, all[i].Resource)
		assert.NotEmpty(t, all[i].Title)
		assert.NotEmpty(t, all[i].Headers)
	}
}

func TestHeadersMatchColumns(t *testing.T) {
	repo := &fakeRepo{}
	for _, e := range All() {
		t.Run(string(e.Resource), func(t *testing.T) {
			res, err := e.Fetcher(repo, domain.Filter{})(context.Background(), 1, 5)
			require.NoError(t, err)
			require.Len(t, res.Items, 1)
			assert.Len(t, res.Items[0].Columns(), len(e.Headers))
		})
	}
}

func TestFetcherBindsFilter(t *testing.T) {
	repo := &fakeRepo{}
	e, err := Lookup(domain.ResourcePayments)
	require.NoError(t, err)

	f := domain.Filter{Status: "paid", InstitutionID: "inst-1"}
	res, err := e.Fetcher(repo, f)(context.Background(), 3, 25)
	require.NoError(t, err)

	assert.Equal(t, "payments", repo.method)
	assert.Equal(t, f, repo.filter)
	assert.Equal(t, 3, repo.page)
	assert.Equal(t, 25, repo.size)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, "pay1", res.Items[0].GetID())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("robots")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestNextStatus(t *testing.T) {
	e, err := Lookup(domain.ResourceReports)
	require.NoError(t, err)

	tests := []struct {
		current string
		want    string
	}{
		{"", "open"},
		{"open", "reviewing"},
		{"reviewing", "closed"},
		{"closed", ""},
		{"bogus", "open"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.NextStatus(tt.current), "after %q", tt.current)
	}

	history, err := Lookup(domain.ResourceHistory)
	require.NoError(t, err)
	assert.Equal(t, "", history.NextStatus(""))
	assert.True(t, history.AcceptsStatus(""))
	assert.False(t, history.AcceptsStatus("open"))
	assert.True(t, e.AcceptsStatus("closed"))
}

func TestNewControllerLoadsThroughRepository(t *testing.T) {
	repo := &fakeRepo{}
	e, err := Lookup(domain.ResourceDevices)
	require.NoError(t, err)

	c := e.NewController(context.Background(), repo, domain.Filter{Status: "online"}, paging.WithPageSize(10))
	defer c.Close()

	st, err := paging.Collect(context.Background(), c, 0)
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "d1", st.Items[0].GetID())
	assert.False(t, st.HasMore)
	assert.Equal(t, "online", repo.filter.Status)
	assert.Equal(t, 10, repo.size)
}
