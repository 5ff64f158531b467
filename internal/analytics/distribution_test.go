package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"spendlens/internal/core"
)

func TestHistogram(t *testing.T) {
	amounts := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	bins, err := Histogram(amounts, 5)
	if err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	if len(bins) != 5 {
		t.Fatalf("got %d bins, want 5", len(bins))
	}

	// Boundaries are contiguous and non-overlapping.
	for i := 1; i < len(bins); i++ {
		if bins[i].Start != bins[i-1].End {
			t.Errorf("bin %d starts at %v, previous ends at %v", i, bins[i].Start, bins[i-1].End)
		}
	}

	// Every amount lands in exactly one bin.
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(amounts) {
		t.Errorf("bin counts sum to %d, want %d", total, len(amounts))
	}

	// The global max goes in the final, inclusive bin.
	if bins[4].Count != 3 { // 8, 9, 10
		t.Errorf("final bin count = %d, want 3", bins[4].Count)
	}
}

func TestHistogramEdgeCases(t *testing.T) {
	t.Run("empty input degrades to empty series", func(t *testing.T) {
		bins, err := Histogram(nil, 10)
		if err != nil {
			t.Fatalf("Histogram() error = %v", err)
		}
		if len(bins) != 0 {
			t.Errorf("got %d bins, want 0", len(bins))
		}
	})

	t.Run("invalid bin count", func(t *testing.T) {
		_, err := Histogram([]float64{1, 2}, 0)
		if !errors.Is(err, ErrInvalidBins) {
			t.Errorf("got %v, want ErrInvalidBins", err)
		}
	})

	t.Run("constant amounts collapse into one bin", func(t *testing.T) {
		bins, err := Histogram([]float64{5, 5, 5}, 4)
		if err != nil {
			t.Fatalf("Histogram() error = %v", err)
		}
		total := 0
		for _, b := range bins {
			total += b.Count
		}
		if total != 3 {
			t.Errorf("bin counts sum to %d, want 3", total)
		}
	})
}

func TestShareByGroup(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []core.Transaction{
		tx(1, ts, 75, catID(1)),
		tx(2, ts, 25, catID(3)),
	}

	share, err := ShareByGroup(records, DimCategory, testCategories())
	if err != nil {
		t.Fatalf("ShareByGroup() error = %v", err)
	}
	if share.Total != 100 {
		t.Errorf("total = %v, want 100", share.Total)
	}
	if share.Groups[0].Key != "Food" || share.Groups[0].Percentage != 75 {
		t.Errorf("top group = %+v, want Food/75%%", share.Groups[0])
	}

	var pctSum float64
	for _, g := range share.Groups {
		pctSum += g.Percentage
	}
	if math.Abs(pctSum-100) > 0.1 {
		t.Errorf("percentages sum to %v, want 100±0.1", pctSum)
	}
}

func TestShareByGroupZeroTotal(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []core.Transaction{
		tx(1, ts, 50, catID(1)),
		tx(2, ts, -50, catID(3)),
	}

	share, err := ShareByGroup(records, DimCategory, testCategories())
	if err != nil {
		t.Fatalf("ShareByGroup() error = %v", err)
	}
	for _, g := range share.Groups {
		if g.Percentage != 0 {
			t.Errorf("zero overall total must zero every percentage, got %+v", g)
		}
	}
}

func TestShareByGroupInvalidAxis(t *testing.T) {
	_, err := ShareByGroup(nil, DimDay, nil)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("got %v, want ErrInvalidDimension", err)
	}
}

func TestRank(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	loc := func(text string) core.Location { return core.Location{Text: text} }
	records := []core.Transaction{
		{ID: 1, OwnerID: 1, Time: ts, Amount: 10, Location: loc("cafe")},
		{ID: 2, OwnerID: 1, Time: ts, Amount: 40, Location: loc("market")},
		{ID: 3, OwnerID: 1, Time: ts, Amount: 25, Location: loc("cafe")},
		{ID: 4, OwnerID: 1, Time: ts, Amount: 5, Location: loc("kiosk")},
		{ID: 5, OwnerID: 1, Time: ts, Amount: 7, Location: core.Location{}}, // no label, dropped
	}

	got, err := Rank(records, DimLocation, 2, nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	want := []RankEntry{
		{Key: "market", Total: 40},
		{Key: "cafe", Total: 35},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// topN above distinct keys returns every key.
	all, err := Rank(records, DimLocation, 10, nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d entries, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Total > all[i-1].Total {
			t.Errorf("ranking not descending at %d: %+v", i, all)
		}
	}
}

func TestRankByDay(t *testing.T) {
	records := []core.Transaction{
		tx(1, time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), 10, nil),
		tx(2, time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC), 90, nil),
		tx(3, time.Date(2024, 1, 5, 21, 0, 0, 0, time.UTC), 15, nil),
	}

	got, err := Rank(records, DimDay, 1, nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 1 || got[0].Key != "2024-03-07" || got[0].Total != 90 {
		t.Errorf("got %+v, want single 2024-03-07/90 entry", got)
	}
}

func TestRankInvalidAxis(t *testing.T) {
	_, err := Rank(nil, DimHour, 5, nil)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("got %v, want ErrInvalidDimension", err)
	}
}

func TestLevelScatter(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []core.Transaction{
		tx(1, ts, 10, catID(1)),
		tx(2, ts, 15, catID(1)),
		tx(3, ts, 100, catID(3)),
		tx(4, ts, 9, nil), // uncategorized, excluded
	}

	got := LevelScatter(records, testCategories())
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2: %+v", len(got), got)
	}
	if got[0].Category != "Transport" || got[0].Frequency != 1 || got[0].AvgAmount != 100 {
		t.Errorf("top point = %+v, want Transport freq 1 avg 100", got[0])
	}
	if got[1].Category != "Food" || got[1].Frequency != 2 || got[1].AvgAmount != 12.5 || got[1].Total != 25 {
		t.Errorf("second point = %+v, want Food freq 2 avg 12.5 total 25", got[1])
	}
}

func TestHeatmap(t *testing.T) {
	coord := func(lat, lon float64) core.Location { return core.Location{Lat: &lat, Lon: &lon} }
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []core.Transaction{
		{ID: 1, OwnerID: 1, Time: ts, Amount: 10, Location: coord(39.90420, 116.40740)},
		{ID: 2, OwnerID: 1, Time: ts, Amount: 20, Location: coord(39.90423, 116.40741)}, // same 4dp cell
		{ID: 3, OwnerID: 1, Time: ts, Amount: 5, Location: coord(31.2304, 121.4737)},
		{ID: 4, OwnerID: 1, Time: ts, Amount: 99, Location: core.Location{Text: "no coords"}},
	}

	got := Heatmap(records)
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2: %+v", len(got), got)
	}
	if got[0].Count != 2 || got[0].Amount != 30 || got[0].Intensity != 2 {
		t.Errorf("cluster = %+v, want count 2 amount 30", got[0])
	}
	if got[1].Count != 1 || got[1].Amount != 5 {
		t.Errorf("second cluster = %+v, want count 1 amount 5", got[1])
	}
}
