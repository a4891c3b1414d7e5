package invoicing

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCapacity is returned for an empty capacity list or a non positive capacity.
	ErrInvalidCapacity = errors.New("invalid page capacity")
	// ErrInvalidMaxPages is returned for a negative page limit.
	ErrInvalidMaxPages = errors.New("invalid max pages")
)

// PageDescriptor is one printable page of a document.
type PageDescriptor struct {
	PageNumber int                  `json:"pageNumber"`
	TotalPages int                  `json:"totalPages"`
	Items      []NormalizedLineItem `json:"items"`
	ShowHeader bool                 `json:"showHeader"` // company, client and banking block
	ShowFooter bool                 `json:"showFooter"` // totals, notes, terms and signature block
}

// Capacities is the number of items that fit on page 1, 2, ... The last
// value repeats for every page beyond the list.
type Capacities struct {
	values []int
}

// NewCapacities returns validated capacities: at least one value, all
// positive.
func NewCapacities(values ...int) (Capacities, error) {
	if len(values) == 0 {
		return Capacities{}, fmt.Errorf("%w: at least one capacity is required", ErrInvalidCapacity)
	}
	for i, v := range values {
		if v <= 0 {
			return Capacities{}, fmt.Errorf("%w: page %d holds %d items, want a positive number", ErrInvalidCapacity, i+1, v)
		}
	}
	return Capacities{values: slices.Clone(values)}, nil
}

// ParseCapacities parses a comma separated list like "17,30,20".
func ParseCapacities(s string) (Capacities, error) {
	fields := strings.Split(s, ",")
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return Capacities{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidCapacity, f)
		}
		values = append(values, v)
	}
	return NewCapacities(values...)
}

// At returns the capacity of the page at 0-based index i.
func (c Capacities) At(i int) int {
	if i < len(c.values) {
		return c.values[i]
	}
	return c.values[len(c.values)-1]
}

// Len returns the number of explicitly configured pages.
func (c Capacities) Len() int { return len(c.values) }

// Values returns a copy of the configured capacities.
func (c Capacities) Values() []int { return slices.Clone(c.values) }

func (c Capacities) String() string {
	s := make([]string, len(c.values))
	for i, v := range c.values {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

// Layout holds the pagination rules of a printed document.
//
// The zero Layout is DefaultLayout.
type Layout struct {
	capacities Capacities
	maxPages   int // 0 is unbounded
}

// NewLayout returns a layout with the given capacities. When maxPages is
// positive the document never has more pages: the last one absorbs every
// remaining item beyond its capacity. 0 means no limit.
func NewLayout(maxPages int, capacities ...int) (Layout, error) {
	if maxPages < 0 {
		return Layout{}, fmt.Errorf("%w: %d", ErrInvalidMaxPages, maxPages)
	}
	c, err := NewCapacities(capacities...)
	if err != nil {
		return Layout{}, err
	}
	return Layout{capacities: c, maxPages: maxPages}, nil
}

// DefaultLayout is the A4 layout of printed quotations and invoices: 17 items
// on the first page that also carries the header, 30 on the second, 20 on
// the third, and no more than three pages.
func DefaultLayout() Layout {
	return Layout{capacities: Capacities{values: []int{17, 30, 20}}, maxPages: 3}
}

func (l Layout) resolve() Layout {
	if l.capacities.Len() == 0 {
		return DefaultLayout()
	}
	return l
}

func (l Layout) Capacities() Capacities { return l.resolve().capacities }
func (l Layout) MaxPages() int          { return l.resolve().maxPages }

// IsZero reports whether l is the zero Layout, that plans like DefaultLayout.
func (l Layout) IsZero() bool { return l.capacities.Len() == 0 }

func (l Layout) String() string {
	l = l.resolve()
	if l.maxPages == 0 {
		return l.capacities.String()
	}
	return fmt.Sprintf("%s max %d", l.capacities, l.maxPages)
}

// PageCount returns the number of pages needed for n items, at least 1.
func (l Layout) PageCount(n int) int {
	l = l.resolve()
	if n <= l.capacities.At(0) {
		return 1
	}
	pages, sum := 0, 0
	for sum < n {
		if l.maxPages > 0 && pages == l.maxPages {
			break
		}
		sum += l.capacities.At(pages)
		pages++
	}
	return pages
}

// Overflow returns how many of n items the last page holds beyond its
// capacity. It is only positive when the page limit is reached.
func (l Layout) Overflow(n int) int {
	l = l.resolve()
	pages := l.PageCount(n)
	nominal := 0
	for i := range pages {
		nominal += l.capacities.At(i)
	}
	return max(0, n-nominal)
}

// Plan splits items into pages. Page p holds the items following the ones
// of the previous pages, up to its capacity; the last page holds all the
// remaining ones. Only the first page shows the header and only the last
// one shows the footer. An empty list gives one empty page.
//
// items is never modified and the pages do not share its backing array.
func (l Layout) Plan(items []NormalizedLineItem) []PageDescriptor {
	l = l.resolve()
	total := l.PageCount(len(items))
	pages := make([]PageDescriptor, 0, total)
	offset := 0
	for p := range total {
		end := offset + l.capacities.At(p)
		if p == total-1 || end > len(items) {
			end = len(items)
		}
		page := make([]NormalizedLineItem, end-offset)
		copy(page, items[offset:end])
		pages = append(pages, PageDescriptor{
			PageNumber: p + 1,
			TotalPages: total,
			Items:      page,
			ShowHeader: p == 0,
			ShowFooter: p == total-1,
		})
		offset = end
	}
	return pages
}

// PlanPages splits items into pages using layout.
func PlanPages(items []NormalizedLineItem, layout Layout) []PageDescriptor {
	return layout.Plan(items)
}

// jlayout is the json form of a Layout.
type jlayout struct {
	Capacities []int `json:"capacities"`
	MaxPages   int   `json:"maxPages,omitempty"`
}

func (l Layout) MarshalJSON() ([]byte, error) {
	l = l.resolve()
	return json.Marshal(jlayout{Capacities: l.capacities.Values(), MaxPages: l.maxPages})
}

// UnmarshalJSON validates the layout like NewLayout does.
func (l *Layout) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = Layout{}
		return nil
	}
	var j jlayout
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	layout, err := NewLayout(j.MaxPages, j.Capacities...)
	if err != nil {
		return err
	}
	*l = layout
	return nil
}
