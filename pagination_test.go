package invoicing

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeItems returns n normalized items with ids "1".."n".
func makeItems(n int) []NormalizedLineItem {
	items := make([]LineItem, n)
	for i := range items {
		items[i] = LineItem{ID: fmt.Sprint(i + 1), Quantity: N(1), Rate: N(i + 1)}
	}
	return NormalizeItems(Renumber(items))
}

// pageShape summarizes a page for comparisons.
type pageShape struct {
	Number, Total, Items int
	Header, Footer       bool
}

func shapes(pages []PageDescriptor) []pageShape {
	out := make([]pageShape, len(pages))
	for i, p := range pages {
		out[i] = pageShape{p.PageNumber, p.TotalPages, len(p.Items), p.ShowHeader, p.ShowFooter}
	}
	return out
}

func TestPlanPages(t *testing.T) {
	testCases := []struct {
		name   string
		n      int
		layout Layout
		want   []pageShape
	}{
		{
			name:   "empty document has one page",
			n:      0,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 1, 0, true, true}},
		},
		{
			name:   "first page full",
			n:      17,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 1, 17, true, true}},
		},
		{
			name:   "two pages",
			n:      25,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 2, 17, true, false}, {2, 2, 8, false, true}},
		},
		{
			name:   "second page full",
			n:      47,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 2, 17, true, false}, {2, 2, 30, false, true}},
		},
		{
			name:   "three pages",
			n:      48,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 3, 17, true, false}, {2, 3, 30, false, false}, {3, 3, 1, false, true}},
		},
		{
			name:   "last page absorbs the overflow",
			n:      70,
			layout: DefaultLayout(),
			want:   []pageShape{{1, 3, 17, true, false}, {2, 3, 30, false, false}, {3, 3, 23, false, true}},
		},
		{
			name:   "zero layout is the default one",
			n:      70,
			layout: Layout{},
			want:   []pageShape{{1, 3, 17, true, false}, {2, 3, 30, false, false}, {3, 3, 23, false, true}},
		},
		{
			name:   "unbounded layout repeats the last capacity",
			n:      70,
			layout: mustLayout(t, 0, 17, 30, 20),
			want:   []pageShape{{1, 4, 17, true, false}, {2, 4, 30, false, false}, {3, 4, 20, false, false}, {4, 4, 3, false, true}},
		},
		{
			name:   "page limit beyond the configured prefix",
			n:      100,
			layout: mustLayout(t, 4, 10, 20),
			want:   []pageShape{{1, 4, 10, true, false}, {2, 4, 20, false, false}, {3, 4, 20, false, false}, {4, 4, 50, false, true}},
		},
		{
			name:   "single capacity",
			n:      7,
			layout: mustLayout(t, 0, 3),
			want:   []pageShape{{1, 3, 3, true, false}, {2, 3, 3, false, false}, {3, 3, 1, false, true}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items := makeItems(tc.n)
			pages := PlanPages(items, tc.layout)
			if diff := cmp.Diff(tc.want, shapes(pages)); diff != "" {
				t.Errorf("PlanPages() mismatch (-want +got):\n%s", diff)
			}
			if got := tc.layout.PageCount(tc.n); got != len(pages) {
				t.Errorf("PageCount(%d) = %d, want %d", tc.n, got, len(pages))
			}
		})
	}
}

func TestPlanPagesConservation(t *testing.T) {
	layouts := []Layout{DefaultLayout(), mustLayout(t, 0, 17, 30, 20), mustLayout(t, 2, 1), mustLayout(t, 0, 5)}
	for _, layout := range layouts {
		previous := 0
		for n := 0; n <= 120; n++ {
			items := makeItems(n)
			pages := layout.Plan(items)

			var ids []string
			for i, p := range pages {
				if p.PageNumber != i+1 || p.TotalPages != len(pages) {
					t.Fatalf("%v n=%d: page %d numbered %d/%d", layout, n, i+1, p.PageNumber, p.TotalPages)
				}
				for _, item := range p.Items {
					ids = append(ids, item.ID)
				}
			}
			var want []string
			for _, item := range items {
				want = append(want, item.ID)
			}
			if diff := cmp.Diff(want, ids); diff != "" {
				t.Fatalf("%v n=%d: items are not conserved in order (-want +got):\n%s", layout, n, diff)
			}
			if len(pages) < previous {
				t.Fatalf("%v n=%d: %d pages, fewer than the %d pages for n-1", layout, n, len(pages), previous)
			}
			previous = len(pages)
		}
	}
}

func TestPlanPagesDoesNotAlias(t *testing.T) {
	items := makeItems(20)
	pages := DefaultLayout().Plan(items)
	pages[0].Items[0].Description = "changed"
	if items[0].Description != "" {
		t.Errorf("Plan() output shares the input array")
	}

	again := DefaultLayout().Plan(items)
	if diff := cmp.Diff(shapes(DefaultLayout().Plan(items)), shapes(again)); diff != "" {
		t.Errorf("Plan() is not idempotent (-first +second):\n%s", diff)
	}
}

func TestOverflow(t *testing.T) {
	testCases := []struct {
		n      int
		layout Layout
		want   int
	}{
		{n: 0, layout: DefaultLayout(), want: 0},
		{n: 67, layout: DefaultLayout(), want: 0},
		{n: 70, layout: DefaultLayout(), want: 3},
		{n: 70, layout: mustLayout(t, 0, 17, 30, 20), want: 0},
	}
	for _, tc := range testCases {
		if got := tc.layout.Overflow(tc.n); got != tc.want {
			t.Errorf("%v.Overflow(%d) = %d, want %d", tc.layout, tc.n, got, tc.want)
		}
	}
}

func TestNewLayoutErrors(t *testing.T) {
	testCases := []struct {
		name       string
		maxPages   int
		capacities []int
		want       error
	}{
		{name: "no capacity", want: ErrInvalidCapacity},
		{name: "zero capacity", capacities: []int{17, 0, 20}, want: ErrInvalidCapacity},
		{name: "negative capacity", capacities: []int{-1}, want: ErrInvalidCapacity},
		{name: "negative max pages", maxPages: -1, capacities: []int{17}, want: ErrInvalidMaxPages},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLayout(tc.maxPages, tc.capacities...)
			if !errors.Is(err, tc.want) {
				t.Errorf("NewLayout() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseCapacities(t *testing.T) {
	c, err := ParseCapacities(" 17, 30 ,20")
	if err != nil {
		t.Fatalf("ParseCapacities() failed: %v", err)
	}
	if diff := cmp.Diff([]int{17, 30, 20}, c.Values()); diff != "" {
		t.Errorf("ParseCapacities() mismatch (-want +got):\n%s", diff)
	}
	if got := c.At(10); got != 20 {
		t.Errorf("At(10) = %d, want 20", got)
	}
	for _, s := range []string{"", "17,x", "17,-3"} {
		if _, err := ParseCapacities(s); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("ParseCapacities(%q) error = %v, want %v", s, err, ErrInvalidCapacity)
		}
	}
}

func TestLayoutJSON(t *testing.T) {
	var l Layout
	if err := json.Unmarshal([]byte(`{"capacities":[10,20],"maxPages":5}`), &l); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if l.MaxPages() != 5 || l.Capacities().String() != "10,20" {
		t.Errorf("Unmarshal() = %v, want 10,20 max 5", l)
	}
	got, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if want := `{"capacities":[10,20],"maxPages":5}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	if err := json.Unmarshal([]byte(`{"capacities":[0]}`), &l); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrInvalidCapacity)
	}
}

func mustLayout(t *testing.T, maxPages int, capacities ...int) Layout {
	t.Helper()
	l, err := NewLayout(maxPages, capacities...)
	if err != nil {
		t.Fatalf("NewLayout() failed: %v", err)
	}
	return l
}
