package analytics

import (
	"math"
	"math/rand"
	"sort"
)

// IsolationForestDetector isolates points through randomized recursive
// splitting of the amount axis. Points that isolate in short paths across
// the ensemble score high; the top Contamination fraction of scorers is
// flagged. The seed is fixed so repeated runs over the same scope agree.
//
// Flags are membership-only: the ensemble votes a point in or out but
// reports no deviation score.
type IsolationForestDetector struct {
	Contamination float64 // expected outlier fraction, default 0.10
	Trees         int     // ensemble size, default 100
	SampleSize    int     // per-tree subsample, default 256
	Seed          int64   // default 42
}

func (IsolationForestDetector) Name() string { return "isolation_forest" }

func (d IsolationForestDetector) Detect(amounts []float64) ([]Flag, error) {
	contamination := d.Contamination
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.10
	}
	trees := d.Trees
	if trees <= 0 {
		trees = 100
	}
	sampleSize := d.SampleSize
	if sampleSize <= 0 {
		sampleSize = 256
	}
	if sampleSize > len(amounts) {
		sampleSize = len(amounts)
	}
	seed := d.Seed
	if seed == 0 {
		seed = 42
	}

	rng := rand.New(rand.NewSource(seed))
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))

	forest := make([]*isoNode, trees)
	sample := make([]float64, sampleSize)
	for t := range forest {
		for i := range sample {
			sample[i] = amounts[rng.Intn(len(amounts))]
		}
		forest[t] = buildIsoTree(sample, 0, maxDepth, rng)
	}

	// Average path length across the ensemble, normalized to an anomaly
	// score in (0, 1): shorter paths isolate faster and score higher.
	norm := avgPathLength(sampleSize)
	scores := make([]float64, len(amounts))
	for i, a := range amounts {
		var sum float64
		for _, tree := range forest {
			sum += tree.pathLength(a, 0)
		}
		mean := sum / float64(trees)
		scores[i] = math.Pow(2, -mean/norm)
	}

	k := int(math.Ceil(contamination * float64(len(amounts))))
	if k <= 0 {
		return nil, nil
	}
	if k > len(amounts) {
		k = len(amounts)
	}

	order := make([]int, len(amounts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	flagged := order[:k]
	sort.Ints(flagged)
	flags := make([]Flag, len(flagged))
	for i, idx := range flagged {
		flags[i] = Flag{Index: idx}
	}
	return flags, nil
}

// isoNode is one node of an isolation tree over the 1-D amount axis.
// Internal nodes split at a uniformly random value strictly inside the
// node's value range.
type isoNode struct {
	split float64
	left  *isoNode
	right *isoNode
	size  int // leaf only
}

func buildIsoTree(values []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if depth >= maxDepth || len(values) <= 1 || min == max {
		return &isoNode{size: len(values)}
	}

	split := min + rng.Float64()*(max-min)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{size: len(values)}
	}

	return &isoNode{
		split: split,
		left:  buildIsoTree(left, depth+1, maxDepth, rng),
		right: buildIsoTree(right, depth+1, maxDepth, rng),
	}
}

func (n *isoNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// avgPathLength is c(n), the average unsuccessful-search path length of a
// binary search tree of n nodes, used to normalize isolation depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}
