// Package analytics turns a bounded, already-persisted set of transactions
// into chart-ready derived data: grouped aggregates, distributions and
// rankings, a short-horizon forecast, and flagged outliers.
//
// Every engine in this package is a pure, synchronous computation over the
// record snapshot it is handed. No engine holds state between calls.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"spendlens/internal/core"
)

// Dimension selects the grouping axis for an aggregation call.
type Dimension string

const (
	DimDay         Dimension = "day"
	DimMonth       Dimension = "month"
	DimYear        Dimension = "year"
	DimHour        Dimension = "hour"
	DimWeekday     Dimension = "weekday"
	DimMonthOfYear Dimension = "month-of-year"
	DimCategory    Dimension = "category"
	DimLocation    Dimension = "location"
)

// DefaultLookbackDays is the trailing window applied to calendar dimensions
// when the caller gives no explicit start.
const DefaultLookbackDays = 30

// TimeRange bounds an aggregation call. A zero Start or End leaves that side
// open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects ranges that end before they start.
func (r TimeRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// Contains reports whether t falls inside the range (inclusive bounds).
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Bucket is one aggregation group: all transactions sharing a derived key,
// reduced to a total and a count. Buckets are transient and never persisted.
type Bucket struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Aggregate groups records along the requested dimension and reduces each
// group to a total amount and a count.
//
// Calendar dimensions (day/month/year) truncate the timestamp and sort
// chronologically; when no explicit start is given they default to the last
// 30 days before now. Cyclic dimensions (hour/weekday/month-of-year) always
// emit their full fixed domain, zero-filled, so radar-style charts get a
// stable spoke count. Category and location group by identity and sort
// descending by total; transactions without a category are excluded from
// category grouping rather than bucketed under a synthetic key.
//
// categories maps category id to Category and is only consulted for the
// category dimension; it may be nil otherwise.
func Aggregate(records []core.Transaction, dim Dimension, tr TimeRange, categories map[int64]core.Category, now time.Time) ([]Bucket, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}

	switch dim {
	case DimDay, DimMonth, DimYear:
		if tr.Start.IsZero() {
			tr.Start = now.AddDate(0, 0, -DefaultLookbackDays)
		}
		return aggregateCalendar(filterRange(records, tr), dim), nil
	case DimHour, DimWeekday, DimMonthOfYear:
		return aggregateCyclic(filterRange(records, tr), dim), nil
	case DimCategory:
		return aggregateByKey(filterRange(records, tr), func(t core.Transaction) (string, bool) {
			if t.CategoryID == nil {
				return "", false
			}
			cat, ok := categories[*t.CategoryID]
			if !ok {
				return "", false
			}
			return cat.Name, true
		}), nil
	case DimLocation:
		return aggregateByKey(filterRange(records, tr), func(t core.Transaction) (string, bool) {
			if t.Location.Text == "" {
				return "", false
			}
			return t.Location.Text, true
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dim)
	}
}

func filterRange(records []core.Transaction, tr TimeRange) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, t := range records {
		if tr.Contains(t.Time) {
			out = append(out, t)
		}
	}
	return out
}

func calendarKey(t time.Time, dim Dimension) string {
	switch dim {
	case DimMonth:
		return t.Format("2006-01")
	case DimYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

func aggregateCalendar(records []core.Transaction, dim Dimension) []Bucket {
	byKey := make(map[string]*Bucket)
	for _, t := range records {
		key := calendarKey(t.Time, dim)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key}
			byKey[key] = b
		}
		b.Total += t.Amount
		b.Count++
	}

	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		buckets = append(buckets, *b)
	}
	// Keys are zero-padded date prefixes, so lexical order is chronological.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// cyclicDomain returns the domain size and index function for a cyclic
// dimension. Weekday indexing is Monday-first to match the chart order.
func cyclicDomain(dim Dimension) (int, func(time.Time) int, func(int) string) {
	switch dim {
	case DimWeekday:
		return 7, func(t time.Time) int {
				return (int(t.Weekday()) + 6) % 7
			}, func(i int) string {
				return time.Weekday((i + 1) % 7).String()
			}
	case DimMonthOfYear:
		return 12, func(t time.Time) int {
				return int(t.Month()) - 1
			}, func(i int) string {
				return time.Month(i + 1).String()
			}
	default: // DimHour
		return 24, func(t time.Time) int {
				return t.Hour()
			}, func(i int) string {
				return fmt.Sprintf("%d", i)
			}
	}
}

func aggregateCyclic(records []core.Transaction, dim Dimension) []Bucket {
	size, index, label := cyclicDomain(dim)

	buckets := make([]Bucket, size)
	for i := range buckets {
		buckets[i].Key = label(i)
	}
	for _, t := range records {
		i := index(t.Time)
		buckets[i].Total += t.Amount
		buckets[i].Count++
	}
	return buckets
}

// aggregateByKey groups by an arbitrary derived key, skipping records for
// which the key function reports no key, and sorts descending by total with
// first-encountered order preserved for ties.
func aggregateByKey(records []core.Transaction, keyOf func(core.Transaction) (string, bool)) []Bucket {
	byKey := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, t := range records {
		key, ok := keyOf(t)
		if !ok {
			continue
		}
		i, seen := byKey[key]
		if !seen {
			i = len(buckets)
			byKey[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Total += t.Amount
		buckets[i].Count++
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Total > buckets[j].Total })
	return buckets
}

type (
	// TreeNode is a category with its aggregated total.
	TreeNode struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	// TreeLink connects a parent category to a child carrying the child's
	// total. Exactly one hierarchy level: links never reach grandparents.
	TreeLink struct {
		Source string  `json:"source"`
		Target string  `json:"target"`
		Value  float64 `json:"value"`
	}

	// Tree is the node/link pair consumed by sankey- and tree-style charts.
	Tree struct {
		Nodes []TreeNode `json:"nodes"`
		Links []TreeLink `json:"links"`
	}
)

// Hierarchy aggregates categorized records per category and resolves each
// group's parent through the supplied map, built once per request. Records
// without a resolvable category are skipped, and parents are looked up a
// single level (no recursion to grandparents).
func Hierarchy(records []core.Transaction, categories map[int64]core.Category, tr TimeRange) (Tree, error) {
	if err := tr.Validate(); err != nil {
		return Tree{}, err
	}

	totals := make(map[int64]float64)
	order := make([]int64, 0)
	for _, t := range filterRange(records, tr) {
		if t.CategoryID == nil {
			continue
		}
		id := *t.CategoryID
		if _, ok := categories[id]; !ok {
			continue
		}
		if _, seen := totals[id]; !seen {
			order = append(order, id)
		}
		totals[id] += t.Amount
	}

	tree := Tree{
		Nodes: make([]TreeNode, 0, len(order)),
		Links: make([]TreeLink, 0),
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })

	for _, id := range order {
		cat := categories[id]
		tree.Nodes = append(tree.Nodes, TreeNode{Name: cat.Name, Value: totals[id]})

		if cat.ParentID == nil {
			continue
		}
		parent, ok := categories[*cat.ParentID]
		if !ok {
			continue
		}
		tree.Links = append(tree.Links, TreeLink{
			Source: parent.Name,
			Target: cat.Name,
			Value:  totals[id],
		})
	}
	return tree, nil
}
