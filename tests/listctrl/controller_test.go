package listctrl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/summitcrm/pipeline-api/pkg/listctrl"
)

func TestNew_Defaults(t *testing.T) {
	c := listctrl.New()
	q := c.Query()

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 25, q.PageSize)
	assert.Equal(t, listctrl.Sort{Key: "createdAt", Direction: listctrl.Desc}, q.Sort)
	assert.Empty(t, q.Filters)
	assert.Empty(t, q.Search)
}

func TestNew_Options(t *testing.T) {
	c := listctrl.New(
		listctrl.WithPageSize(50),
		listctrl.WithDefaultSort("name", listctrl.Asc),
	)
	q := c.Query()

	assert.Equal(t, 50, q.PageSize)
	assert.Equal(t, listctrl.Sort{Key: "name", Direction: listctrl.Asc}, q.Sort)
}

func TestWithPageSize_IgnoresNonPositive(t *testing.T) {
	c := listctrl.New(listctrl.WithPageSize(0))
	assert.Equal(t, 25, c.Query().PageSize)

	c = listctrl.New(listctrl.WithPageSize(-10))
	assert.Equal(t, 25, c.Query().PageSize)
}

func TestToggleSort(t *testing.T) {
	c := listctrl.New()

	// new key sorts ascending
	c.ToggleSort("name")
	assert.Equal(t, listctrl.Sort{Key: "name", Direction: listctrl.Asc}, c.Query().Sort)

	// same key flips direction
	c.ToggleSort("name")
	assert.Equal(t, listctrl.Sort{Key: "name", Direction: listctrl.Desc}, c.Query().Sort)

	c.ToggleSort("name")
	assert.Equal(t, listctrl.Sort{Key: "name", Direction: listctrl.Asc}, c.Query().Sort)

	// switching keys resets to ascending
	c.ToggleSort("stage")
	assert.Equal(t, listctrl.Sort{Key: "stage", Direction: listctrl.Asc}, c.Query().Sort)
}

func TestSetFilter(t *testing.T) {
	c := listctrl.New()
	c.SetPage(4)

	c.SetFilter("status", "contacted")

	q := c.Query()
	assert.Equal(t, "contacted", q.Filters["status"])
	assert.Equal(t, 1, q.Page, "changing a filter resets pagination")
}

func TestSetFilter_EmptyValueRemoves(t *testing.T) {
	c := listctrl.New()
	c.SetFilter("status", "contacted")
	c.SetFilter("status", "")

	assert.Empty(t, c.Query().Filters)
}

func TestClearFilters(t *testing.T) {
	c := listctrl.New()
	c.SetFilter("status", "contacted")
	c.SetFilter("assignedTo", "jordan")
	c.SetPage(3)

	c.ClearFilters()

	q := c.Query()
	assert.Empty(t, q.Filters)
	assert.Equal(t, 1, q.Page)
}

func TestSetSearch_ResetsPage(t *testing.T) {
	c := listctrl.New()
	c.SetPage(7)

	c.SetSearch("globex")

	q := c.Query()
	assert.Equal(t, "globex", q.Search)
	assert.Equal(t, 1, q.Page)
}

func TestPagination(t *testing.T) {
	c := listctrl.New()

	c.NextPage()
	c.NextPage()
	assert.Equal(t, 3, c.Query().Page)

	c.PrevPage()
	assert.Equal(t, 2, c.Query().Page)

	c.PrevPage()
	c.PrevPage()
	assert.Equal(t, 1, c.Query().Page, "prev stops at page 1")

	c.SetPage(-5)
	assert.Equal(t, 1, c.Query().Page, "pages below 1 clamp to 1")

	c.SetPage(9)
	assert.Equal(t, 9, c.Query().Page)
}

func TestQuery_FiltersCopied(t *testing.T) {
	c := listctrl.New()
	c.SetFilter("status", "contacted")

	q := c.Query()
	q.Filters["status"] = "mutated"

	assert.Equal(t, "contacted", c.Query().Filters["status"])
}

func TestSelection(t *testing.T) {
	c := listctrl.New()

	c.Select("a")
	c.Select("b")
	assert.True(t, c.IsSelected("a"))
	assert.Equal(t, 2, c.SelectionCount())

	c.Deselect("a")
	assert.False(t, c.IsSelected("a"))
	assert.Equal(t, 1, c.SelectionCount())

	c.ToggleSelect("b")
	assert.False(t, c.IsSelected("b"))
	c.ToggleSelect("b")
	assert.True(t, c.IsSelected("b"))
}

func TestSelectedIDs_Sorted(t *testing.T) {
	c := listctrl.New()
	c.Select("charlie")
	c.Select("alpha")
	c.Select("bravo")

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, c.SelectedIDs())
}

func TestSelectAll_AdditiveAcrossPages(t *testing.T) {
	c := listctrl.New()

	c.SelectAll([]string{"a", "b"})
	c.NextPage()
	c.SelectAll([]string{"c", "d"})

	assert.Equal(t, 4, c.SelectionCount())
	assert.True(t, c.IsSelected("a"))
	assert.True(t, c.IsSelected("d"))
}

func TestDeselectAll_OnlyRemovesVisible(t *testing.T) {
	c := listctrl.New()
	c.SelectAll([]string{"a", "b", "c"})

	c.DeselectAll([]string{"a", "b"})

	assert.Equal(t, []string{"c"}, c.SelectedIDs())
}

func TestClearSelection(t *testing.T) {
	c := listctrl.New()
	c.SelectAll([]string{"a", "b", "c"})

	c.ClearSelection()

	assert.Zero(t, c.SelectionCount())
	assert.Empty(t, c.SelectedIDs())
}

func TestAllVisibleSelected(t *testing.T) {
	c := listctrl.New()
	c.SelectAll([]string{"a", "b"})

	assert.True(t, c.AllVisibleSelected([]string{"a", "b"}))
	assert.False(t, c.AllVisibleSelected([]string{"a", "b", "c"}))
	assert.False(t, c.AllVisibleSelected(nil), "empty page never reports all selected")
}
