package domain

// ListItem is the polymorphic interface for records shown in list screens.
// It provides a common API for display and filtering across all resources.
type ListItem interface {
	// GetID returns the server identifier
	GetID() string

	// GetTitle returns the primary display text
	GetTitle() string

	// GetDescription returns secondary info for display
	GetDescription() string

	// GetStatus returns the status label, empty when the resource has none
	GetStatus() string

	// Columns returns the cells for tabular output, matching the catalog headers
	Columns() []string
}
