package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// pageEnvelope is the wire shape of every paginated list endpoint.
type pageEnvelope[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// getPage fetches one page of a list endpoint. A null row fails the page.
func getPage[T any](ctx context.Context, c *Client, path string, f domain.Filter, page, size int) (paging.PageResult[*T], error) {
	query := filterQuery(f)
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return paging.PageResult[*T]{}, err
	}

	var env pageEnvelope[*T]
	if err := json.Unmarshal(body, &env); err != nil {
		return paging.PageResult[*T]{}, decodeError(path, err)
	}
	for i, item := range env.Data {
		if item == nil {
			return paging.PageResult[*T]{}, &paging.Error{
				Kind: paging.KindDecode,
				Msg:  fmt.Sprintf("malformed response: null row %d", i),
				Err:  fmt.Errorf("failed to parse %s: row %d is null", path, i),
			}
		}
	}

	totalPages := env.TotalPages
	if totalPages < 0 {
		totalPages = 0
	}
	if totalPages == 0 && env.Total > 0 && size > 0 {
		totalPages = (env.Total + size - 1) / size
	}

	c.logger.Debug("page received", "path", path, "page", page, "items", len(env.Data), "totalPages", totalPages)
	return paging.PageResult[*T]{Items: env.Data, TotalPages: totalPages}, nil
}

func filterQuery(f domain.Filter) url.Values {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", f.Status)
	}
	if f.UserID != "" {
		query.Set("user_id", f.UserID)
	}
	if f.InstitutionID != "" {
		query.Set("institution_id", f.InstitutionID)
	}
	return query
}

// ListUsers returns a page of users
func (c *Client) ListUsers(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.User], error) {
	return getPage[domain.User](ctx, c, "/api/users", f, page, size)
}

// ListDevices returns a page of devices
func (c *Client) ListDevices(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Device], error) {
	return getPage[domain.Device](ctx, c, "/api/devices", f, page, size)
}

// ListReports returns a page of reports
func (c *Client) ListReports(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Report], error) {
	return getPage[domain.Report](ctx, c, "/api/reports", f, page, size)
}

// ListVerifications returns a page of verification attempts, newest first
func (c *Client) ListVerifications(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Verification], error) {
	return getPage[domain.Verification](ctx, c, "/api/verifications", f, page, size)
}

// ListHistory returns a page of audit history
func (c *Client) ListHistory(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.HistoryEntry], error) {
	return getPage[domain.HistoryEntry](ctx, c, "/api/history", f, page, size)
}

// ListPalmprints returns a page of palmprint enrollments
func (c *Client) ListPalmprints(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Palmprint], error) {
	return getPage[domain.Palmprint](ctx, c, "/api/palmprints", f, page, size)
}

// ListInstitutions returns a page of institutions
func (c *Client) ListInstitutions(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Institution], error) {
	return getPage[domain.Institution](ctx, c, "/api/institutions", f, page, size)
}

// ListPayments returns a page of payments
func (c *Client) ListPayments(ctx context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Payment], error) {
	return getPage[domain.Payment](ctx, c, "/api/payments", f, page, size)
}

var _ domain.Repository = (*Client)(nil)
