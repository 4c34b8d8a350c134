package domain

import (
	"context"

	"github.com/palmgate/palmgate/internal/paging"
)

// Filter narrows a list request. Empty fields are not sent.
type Filter struct {
	Status        string
	UserID        string
	InstitutionID string
}

// Repository provides paginated access to the admin API.
// Every method takes a 1-based page and a page size.
type Repository interface {
	ListUsers(ctx context.Context, f Filter, page, size int) (paging.PageResult[*User], error)
	ListDevices(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Device], error)
	ListReports(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Report], error)
	ListVerifications(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Verification], error)
	ListHistory(ctx context.Context, f Filter, page, size int) (paging.PageResult[*HistoryEntry], error)
	ListPalmprints(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Palmprint], error)
	ListInstitutions(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Institution], error)
	ListPayments(ctx context.Context, f Filter, page, size int) (paging.PageResult[*Payment], error)
}
