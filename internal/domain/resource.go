package domain

import (
	"fmt"
	"strings"
)

// Resource names a remote list served by its own screen.
type Resource string

const (
	ResourceUsers         Resource = "users"
	ResourceDevices       Resource = "devices"
	ResourceReports       Resource = "reports"
	ResourceVerifications Resource = "verifications"
	ResourceHistory       Resource = "history"
	ResourcePalmprints    Resource = "palmprints"
	ResourceInstitutions  Resource = "institutions"
	ResourcePayments      Resource = "payments"
)

// Resources lists every resource in screen order.
func Resources() []Resource {
	return []Resource{
		ResourceUsers,
		ResourceDevices,
		ResourceReports,
		ResourceVerifications,
		ResourceHistory,
		ResourcePalmprints,
		ResourceInstitutions,
		ResourcePayments,
	}
}

// ParseResource matches s case-insensitively, accepting a trailing-s-less form ("user").
func ParseResource(s string) (Resource, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Resources() {
		if s == string(r) || s+"s" == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
}
