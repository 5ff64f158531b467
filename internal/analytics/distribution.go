package analytics

import (
	"fmt"
	"sort"
	"time"

	"spendlens/internal/core"
)

// Bin is one interval of an equal-width histogram. Every bin is half-open
// [Start, End) except the final one, which includes the global maximum.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram splits [min, max] of the amounts into bins equal-width intervals.
// An empty input degrades to an empty series rather than an error; a bin
// count below one is rejected.
func Histogram(amounts []float64, bins int) ([]Bin, error) {
	if bins < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBins, bins)
	}
	if len(amounts) == 0 {
		return []Bin{}, nil
	}

	min, max := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}

	width := (max - min) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Start = Round2(min + float64(i)*width)
		out[i].End = Round2(min + float64(i+1)*width)
	}
	// Bucketing uses the exact width, not the rounded display edges, so
	// rounding never shifts a value across a boundary.
	for _, a := range amounts {
		i := bins - 1
		if width > 0 {
			i = int((a - min) / width)
			if i >= bins {
				i = bins - 1 // global max lands in the final, inclusive bin
			}
		}
		out[i].Count++
	}
	return out, nil
}

type (
	// ShareGroup is one slice of a percentage breakdown.
	ShareGroup struct {
		Key        string  `json:"key"`
		Total      float64 `json:"total"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	// Share is a full percentage breakdown along one grouping axis.
	Share struct {
		Groups []ShareGroup `json:"groups"`
		Total  float64      `json:"total"`
	}
)

// ShareByGroup computes each group's percentage of the overall total along
// the category or location axis. Percentages are rounded to 2 decimals and
// are all zero when the overall total is zero.
func ShareByGroup(records []core.Transaction, groupBy Dimension, categories map[int64]core.Category) (Share, error) {
	if groupBy != DimCategory && groupBy != DimLocation {
		return Share{}, fmt.Errorf("%w: %q", ErrInvalidDimension, groupBy)
	}

	buckets, err := Aggregate(records, groupBy, TimeRange{}, categories, time.Time{})
	if err != nil {
		return Share{}, err
	}

	var total float64
	for _, b := range buckets {
		total += b.Total
	}

	share := Share{Groups: make([]ShareGroup, 0, len(buckets)), Total: total}
	for _, b := range buckets {
		pct := 0.0
		if total != 0 {
			pct = Round2(b.Total / total * 100)
		}
		share.Groups = append(share.Groups, ShareGroup{
			Key:        b.Key,
			Total:      b.Total,
			Count:      b.Count,
			Percentage: pct,
		})
	}
	return share, nil
}

// RankEntry is one row of a top-N ranking.
type RankEntry struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// Rank produces the top-N groups by total along the category, location or
// day axis, sorted strictly descending with ties kept in first-encountered
// order.
func Rank(records []core.Transaction, rankBy Dimension, topN int, categories map[int64]core.Category) ([]RankEntry, error) {
	switch rankBy {
	case DimCategory, DimLocation, DimDay:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, rankBy)
	}
	if topN < 1 {
		topN = 10
	}

	var buckets []Bucket
	if rankBy == DimDay {
		// Rank over the whole supplied scope; no trailing-window default.
		buckets = aggregateCalendar(records, DimDay)
		sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Total > buckets[j].Total })
	} else {
		var err error
		buckets, err = Aggregate(records, rankBy, TimeRange{}, categories, time.Time{})
		if err != nil {
			return nil, err
		}
	}

	if len(buckets) > topN {
		buckets = buckets[:topN]
	}
	out := make([]RankEntry, len(buckets))
	for i, b := range buckets {
		out[i] = RankEntry{Key: b.Key, Total: b.Total}
	}
	return out, nil
}

// ScatterPoint relates a category's usage frequency to its average and total
// spend, one point per category.
type ScatterPoint struct {
	Category  string  `json:"category"`
	Frequency int     `json:"frequency"`
	AvgAmount float64 `json:"avg_amount"`
	Total     float64 `json:"total_amount"`
}

// LevelScatter computes per-category frequency, average and total amounts.
// Uncategorized records are excluded, matching category aggregation.
func LevelScatter(records []core.Transaction, categories map[int64]core.Category) []ScatterPoint {
	buckets := aggregateByKey(records, func(t core.Transaction) (string, bool) {
		if t.CategoryID == nil {
			return "", false
		}
		cat, ok := categories[*t.CategoryID]
		if !ok {
			return "", false
		}
		return cat.Name, true
	})

	out := make([]ScatterPoint, len(buckets))
	for i, b := range buckets {
		out[i] = ScatterPoint{
			Category:  b.Key,
			Frequency: b.Count,
			AvgAmount: Round2(b.Total / float64(b.Count)),
			Total:     Round2(b.Total),
		}
	}
	return out
}

// HeatPoint is a coordinate cluster with its visit count and total spend.
// Intensity mirrors the count, the weight heat layers expect.
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Count     int     `json:"count"`
	Amount    float64 `json:"amount"`
	Intensity int     `json:"intensity"`
}

// Heatmap clusters located transactions on their coordinates rounded to four
// decimal places (roughly ten meters). Records without a full coordinate
// pair are skipped.
func Heatmap(records []core.Transaction) []HeatPoint {
	byKey := make(map[string]int)
	points := make([]HeatPoint, 0)

	for _, t := range records {
		if !t.Location.HasCoordinates() {
			continue
		}
		key := fmt.Sprintf("%.4f,%.4f", *t.Location.Lat, *t.Location.Lon)
		i, seen := byKey[key]
		if !seen {
			i = len(points)
			byKey[key] = i
			points = append(points, HeatPoint{Lat: *t.Location.Lat, Lon: *t.Location.Lon})
		}
		points[i].Count++
		points[i].Amount += t.Amount
	}

	for i := range points {
		points[i].Amount = Round2(points[i].Amount)
		points[i].Intensity = points[i].Count
	}
	return points
}
