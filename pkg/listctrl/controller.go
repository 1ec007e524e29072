// Package listctrl implements the shared list view state machine used by
// table screens: sorting, filtering, pagination, and row selection. Clients
// embed a Controller, feed it user intents, and read back the query state
// to send to the API.
package listctrl

import "sort"

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the active sort key and direction
type Sort struct {
	Key       string
	Direction Direction
}

// Query is the request-shaped snapshot of the controller state
type Query struct {
	Page     int
	PageSize int
	Sort     Sort
	Filters  map[string]string
	Search   string
}

// Controller tracks one list view's interaction state. It is not safe for
// concurrent use; callers own the synchronization.
type Controller struct {
	page     int
	pageSize int
	sort     Sort
	filters  map[string]string
	search   string
	selected map[string]struct{}
}

// Option configures a Controller
type Option func(*Controller)

// WithPageSize sets the page size (default 25)
func WithPageSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithDefaultSort sets the initial sort
func WithDefaultSort(key string, dir Direction) Option {
	return func(c *Controller) {
		c.sort = Sort{Key: key, Direction: dir}
	}
}

// New creates a controller on page 1 with no filters or selection
func New(opts ...Option) *Controller {
	c := &Controller{
		page:     1,
		pageSize: 25,
		sort:     Sort{Key: "createdAt", Direction: Desc},
		filters:  make(map[string]string),
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the current request state
func (c *Controller) Query() Query {
	filters := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = v
	}
	return Query{
		Page:     c.page,
		PageSize: c.pageSize,
		Sort:     c.sort,
		Filters:  filters,
		Search:   c.search,
	}
}

// ToggleSort applies a header click: clicking the active sort key flips its
// direction; clicking a new key sorts by it ascending.
func (c *Controller) ToggleSort(key string) {
	if c.sort.Key == key {
		if c.sort.Direction == Asc {
			c.sort.Direction = Desc
		} else {
			c.sort.Direction = Asc
		}
		return
	}
	c.sort = Sort{Key: key, Direction: Asc}
}

// SetFilter sets a filter value and resets to page 1. An empty value removes
// the filter.
func (c *Controller) SetFilter(key, value string) {
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.page = 1
}

// ClearFilters removes all filters and resets to page 1
func (c *Controller) ClearFilters() {
	c.filters = make(map[string]string)
	c.page = 1
}

// SetSearch sets the free-text search and resets to page 1
func (c *Controller) SetSearch(term string) {
	c.search = term
	c.page = 1
}

// SetPage moves to a page; pages below 1 clamp to 1
func (c *Controller) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.page = page
}

// NextPage advances one page
func (c *Controller) NextPage() {
	c.page++
}

// PrevPage steps back one page, stopping at 1
func (c *Controller) PrevPage() {
	if c.page > 1 {
		c.page--
	}
}

// Select marks a row as selected
func (c *Controller) Select(id string) {
	c.selected[id] = struct{}{}
}

// Deselect unmarks a row
func (c *Controller) Deselect(id string) {
	delete(c.selected, id)
}

// ToggleSelect flips a row's selection
func (c *Controller) ToggleSelect(id string) {
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
}

// SelectAll marks every visible row as selected. Selection is additive
// across pages until cleared.
func (c *Controller) SelectAll(visibleIDs []string) {
	for _, id := range visibleIDs {
		c.selected[id] = struct{}{}
	}
}

// DeselectAll removes the visible rows from the selection
func (c *Controller) DeselectAll(visibleIDs []string) {
	for _, id := range visibleIDs {
		delete(c.selected, id)
	}
}

// ClearSelection empties the selection. Bulk actions call this after the
// server acknowledges the operation.
func (c *Controller) ClearSelection() {
	c.selected = make(map[string]struct{})
}

// IsSelected reports whether a row is selected
func (c *Controller) IsSelected(id string) bool {
	_, ok := c.selected[id]
	return ok
}

// SelectedIDs returns the selection in stable sorted order
func (c *Controller) SelectedIDs() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectionCount returns the number of selected rows
func (c *Controller) SelectionCount() int {
	return len(c.selected)
}

// AllVisibleSelected reports whether every visible row is in the selection.
// An empty page reports false so a header checkbox never shows checked over
// nothing.
func (c *Controller) AllVisibleSelected(visibleIDs []string) bool {
	if len(visibleIDs) == 0 {
		return false
	}
	for _, id := range visibleIDs {
		if _, ok := c.selected[id]; !ok {
			return false
		}
	}
	return true
}
