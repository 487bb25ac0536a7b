package store

// Defaults applied by NewPageParams
const (
	DefaultPageOffset = 0
	DefaultPageLimit  = 100
)

// PageParams contains offset/limit parameters for listing queries
type PageParams struct {
	Offset int // Number of records to skip
	Limit  int // Maximum number of records to return
}

// NewPageParams creates a new PageParams, substituting defaults for
// negative offsets and non-positive limits
func NewPageParams(offset, limit int) PageParams {
	if offset < 0 {
		offset = DefaultPageOffset
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	return PageParams{Offset: offset, Limit: limit}
}
