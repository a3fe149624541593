package view

// StatusFilter narrows the table to one slice of the working set. The wire
// value "active" is kept for compatibility with existing clients but its
// predicate is "not expired", which is broader than the active status tag;
// FilterNotExpired names the actual behavior.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterNotExpired StatusFilter = "active"
	FilterExpired    StatusFilter = "expired"
	FilterExpiring   StatusFilter = "expiring"
)

type SortField string

const (
	SortByKey    SortField = "license_key"
	SortByStatus SortField = "status"
	SortByHWID   SortField = "hwid"
	SortByExpiry SortField = "expires_at"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// State holds the user-controlled parameters governing what subset and order
// of records is displayed. Page is 1-based.
type State struct {
	Search    string
	Filter    StatusFilter
	SortField SortField
	SortDir   Direction
	PageSize  int
	Page      int
}

func DefaultState() State {
	return State{
		Filter:    FilterAll,
		SortField: SortByExpiry,
		SortDir:   Asc,
		PageSize:  10,
		Page:      1,
	}
}

// WithSearch, WithFilter and WithPageSize reset the page to 1: changing any
// of them invalidates the meaning of the previous page index.

func (s State) WithSearch(term string) State {
	s.Search = term
	s.Page = 1
	return s
}

func (s State) WithFilter(f StatusFilter) State {
	s.Filter = f
	s.Page = 1
	return s
}

func (s State) WithPageSize(size int) State {
	s.PageSize = size
	s.Page = 1
	return s
}

func (s State) WithSort(field SortField, dir Direction) State {
	s.SortField = field
	s.SortDir = dir
	return s
}
