package pantry

import (
	"fmt"
	"slices"
	"strings"
)

// SortOrder is one of the pantry list's sort menu entries
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
	SortCountDesc SortOrder = "count_desc"
	SortDateDesc  SortOrder = "date_desc" // newest first
)

// ParseSortOrder validates a sort order from a query string
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.TrimSpace(s)); order {
	case SortNone, SortNameAsc, SortNameDesc, SortCountDesc, SortDateDesc:
		return order, nil
	default:
		return SortNone, fmt.Errorf("unknown sort order %q", s)
	}
}

// ViewState is the pantry list's presentation state: what is searched for and how it is sorted.
// The UI round-trips it as the search and sort query parameters.
type ViewState struct {
	Search string    `json:"search"`
	Sort   SortOrder `json:"sort"`
}

// Apply filters and sorts a freshly listed collection. The input slice is not modified.
func (v ViewState) Apply(items []*Item) []*Item {
	return v.sort(v.filter(items))
}

func (v ViewState) filter(items []*Item) []*Item {
	term := strings.ToLower(strings.TrimSpace(v.Search))
	filtered := make([]*Item, 0, len(items))
	for _, item := range items {
		if term == "" || strings.Contains(strings.ToLower(item.Name), term) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// sort is stable: items that compare equal keep their listed order
func (v ViewState) sort(items []*Item) []*Item {
	var cmp func(a, b *Item) int
	switch v.Sort {
	case SortNameAsc:
		cmp = func(a, b *Item) int { return strings.Compare(a.Name, b.Name) }
	case SortNameDesc:
		cmp = func(a, b *Item) int { return strings.Compare(b.Name, a.Name) }
	case SortCountDesc:
		cmp = func(a, b *Item) int { return b.Count - a.Count }
	case SortDateDesc:
		cmp = func(a, b *Item) int { return b.AddedAt.Compare(a.AddedAt) }
	default:
		return items
	}
	slices.SortStableFunc(items, cmp)
	return items
}
