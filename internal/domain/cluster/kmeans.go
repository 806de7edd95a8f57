package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Centroid-based partitioning parameters. The seed is fixed so that identical
// cohorts always produce identical partitions; multiple random restarts keep
// the lowest-inertia result.
const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 100
)

// standardize scales each feature dimension to zero mean and unit variance,
// fit fresh on this batch. Constant dimensions keep a unit scale so they do
// not blow up to NaN. Returns new slices; the input is not modified.
func standardize(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return nil
	}
	dims := len(points[0])

	column := make([]float64, len(points))
	means := make([]float64, dims)
	scales := make([]float64, dims)
	for d := 0; d < dims; d++ {
		for i, p := range points {
			column[i] = p[d]
		}
		means[d] = stat.Mean(column, nil)
		scales[d] = populationStdDev(column, means[d])
		if scales[d] == 0 {
			scales[d] = 1
		}
	}

	scaled := make([][]float64, len(points))
	for i, p := range points {
		row := make([]float64, dims)
		for d := 0; d < dims; d++ {
			row[d] = (p[d] - means[d]) / scales[d]
		}
		scaled[i] = row
	}
	return scaled
}

// populationStdDev is the biased standard deviation (divide by n), matching
// the scaler the thresholds were tuned against.
func populationStdDev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// kmeansResult is one partition of the points.
type kmeansResult struct {
	labels  []int
	inertia float64
}

// runKMeans partitions the points into k clusters with Lloyd's algorithm,
// seeded restarts, and lowest-inertia selection. Every cluster in the result
// is non-empty.
func runKMeans(points [][]float64, k int) kmeansResult {
	rng := rand.New(rand.NewSource(kmeansSeed))

	best := kmeansResult{inertia: math.Inf(1)}
	for r := 0; r < kmeansRestarts; r++ {
		res := lloyd(points, k, rng)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

// lloyd runs a single k-means pass from a random initialization.
func lloyd(points [][]float64, k int, rng *rand.Rand) kmeansResult {
	dims := len(points[0])

	// Forgy initialization: k distinct points as starting centroids.
	perm := rng.Perm(len(points))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	labels := make([]int, len(points))
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := assign(points, centroids, labels)
		fixEmptyClusters(points, centroids, labels, k)

		// Recompute centroids.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			floats.Add(sums[c], p)
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}
	return kmeansResult{labels: labels, inertia: inertia}
}

// assign labels every point with its nearest centroid. Reports whether any
// label changed.
func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		bestC := 0
		bestD := math.Inf(1)
		for c, centroid := range centroids {
			d := floats.Distance(p, centroid, 2)
			if d < bestD {
				bestD = d
				bestC = c
			}
		}
		if labels[i] != bestC {
			labels[i] = bestC
			changed = true
		}
	}
	return changed
}

// fixEmptyClusters reassigns the point farthest from its centroid into any
// cluster that ended up empty, so the partition always has k non-empty
// clusters (the contract exposed to callers).
func fixEmptyClusters(points, centroids [][]float64, labels []int, k int) {
	counts := make([]int, k)
	for _, c := range labels {
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		farthest, maxD := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] <= 1 {
				continue
			}
			d := floats.Distance(p, centroids[labels[i]], 2)
			if d > maxD {
				maxD = d
				farthest = i
			}
		}
		if farthest >= 0 {
			counts[labels[farthest]]--
			labels[farthest] = c
			counts[c] = 1
			centroids[c] = append([]float64(nil), points[farthest]...)
		}
	}
}
