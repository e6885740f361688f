package vecindex

// kmeansIterations bounds Lloyd's algorithm. The corpus sizes this index
// serves converge well before this.
const kmeansIterations = 15

// kmeans clusters the vectors into k centroids using Lloyd's algorithm
// with deterministic initialisation (evenly spaced picks across the
// insertion order), so training the same vector set always yields the
// same structure.
func kmeans(vectors [][]float32, k int) [][]float32 {
	n := len(vectors)
	if k > n {
		k = n
	}
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		src := vectors[c*n/k]
		centroids[c] = make([]float32, dim)
		copy(centroids[c], src)
	}

	assignments := make([]int, n)
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, v := range vectors {
			c := nearestCentroid(v, centroids)
			if c != assignments[i] {
				assignments[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue // empty cluster keeps its previous centroid
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}
	}

	return centroids
}

// nearestCentroid returns the index of the centroid closest to v.
func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := l2Distance(v, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := l2Distance(v, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
