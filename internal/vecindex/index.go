// Package vecindex provides an append-only similarity index over
// fixed-dimension float vectors. It starts as an exact brute-force flat
// index and upgrades itself once to an inverted-file (clustered)
// approximate index as the corpus grows.
package vecindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/logger"
)

const (
	// UpgradeFloor is the minimum stored-vector count below which the
	// index always stays flat.
	UpgradeFloor = 50

	// UpgradeTrigger is the cumulative addition count at which the flat
	// index is rebuilt as an inverted-file index. The upgrade happens at
	// most once per index lifetime.
	UpgradeTrigger = 100

	// minClusters and maxClusters bound nlist = ntotal/10.
	minClusters = 10
	maxClusters = 100

	// defaultProbes is how many clusters an inverted-file search scans.
	defaultProbes = 8
)

// Result is one similarity search hit.
type Result struct {
	// Offset is the vector's position in the index (insertion order).
	Offset int

	// Distance is the L2 distance between the normalised query and the
	// stored vector. Results are ordered ascending by distance.
	Distance float64
}

// ivfState holds the clustered structure after the one-shot upgrade.
type ivfState struct {
	nlist     int
	centroids [][]float32
	// lists[c] holds the offsets assigned to centroid c.
	lists [][]int32
}

// Index is an append-only vector index. Vector offsets are assigned
// sequentially from 0 in insertion order and never reassigned or
// compacted. All vectors are L2-normalised before storage, and queries
// are normalised before search, so L2 distance ranks like cosine
// similarity.
//
// Add serialises mutation and persistence behind a single writer lock;
// Search runs under a read lock with unbounded concurrency.
type Index struct {
	mu   sync.RWMutex
	path string
	dim  int

	// vectors holds every stored vector, normalised, indexed by offset.
	vectors [][]float32

	// ivf is nil while the index is flat.
	ivf *ivfState
}

// New creates an empty flat index of the given dimension, persisted at path.
func New(path string, dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vecindex: dimension must be positive, got %d", dim)
	}
	return &Index{path: path, dim: dim}, nil
}

// Load reads a persisted index from path. A missing or unreadable file is
// not fatal: a fresh empty flat index of the given dimension is returned
// instead, and the problem is logged.
func Load(path string, dim int) (*Index, error) {
	idx, err := New(path, dim)
	if err != nil {
		return nil, err
	}

	loaded, loadErr := readIndexFile(path, dim)
	if loadErr != nil {
		logger.Warn("Could not load vector index from %s: %v (starting fresh)", path, loadErr)
		return idx, nil
	}
	if loaded == nil {
		logger.Debug("No vector index at %s, starting fresh", path)
		return idx, nil
	}

	idx.vectors = loaded.vectors
	idx.ivf = loaded.ivf
	logger.Info("Loaded vector index: %d vectors (%s)", len(idx.vectors), idx.kindLocked())
	return idx, nil
}

// Dimension returns the configured vector dimension.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Count returns the number of stored vectors.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// IsInverted reports whether the one-shot inverted-file upgrade has run.
func (idx *Index) IsInverted() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ivf != nil
}

func (idx *Index) kindLocked() string {
	if idx.ivf != nil {
		return "inverted-file"
	}
	return "flat"
}

// Add normalises and appends the given vectors, assigning them contiguous
// ascending offsets, then persists the index. When cumulative additions
// reach UpgradeTrigger the flat structure is rebuilt as an inverted-file
// index before persisting; this happens at most once.
func (idx *Index) Add(vectors [][]float32) ([]int, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := len(idx.vectors)
	offsets := make([]int, 0, len(vectors))

	for i, v := range vectors {
		if len(v) != idx.dim {
			return nil, fmt.Errorf("vecindex: vector %d has dimension %d, want %d: %w",
				i, len(v), idx.dim, domain.ErrDimensionMismatch)
		}
		nv := make([]float32, idx.dim)
		copy(nv, v)
		normalize(nv)
		idx.vectors = append(idx.vectors, nv)
		offsets = append(offsets, start+len(offsets))
	}

	if idx.ivf != nil {
		idx.assignLocked(offsets)
	} else if len(idx.vectors) >= UpgradeTrigger {
		idx.upgradeLocked()
	}

	if err := idx.persistLocked(); err != nil {
		return nil, fmt.Errorf("vecindex: persist after add: %w", err)
	}

	return offsets, nil
}

// Search returns up to k results ordered ascending by L2 distance to the
// query. Negative offsets never surface; when fewer than k vectors are
// stored, fewer results are returned.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("vecindex: query has dimension %d, want %d: %w",
			len(query), idx.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	q := make([]float32, idx.dim)
	copy(q, query)
	normalize(q)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return nil, nil
	}

	var candidates []int32
	if idx.ivf != nil {
		candidates = idx.probeLocked(q)
	}

	results := make([]Result, 0, k)
	consider := func(offset int32) {
		if offset < 0 {
			return
		}
		d := l2Distance(q, idx.vectors[offset])
		results = append(results, Result{Offset: int(offset), Distance: d})
	}

	if candidates != nil {
		for _, off := range candidates {
			consider(off)
		}
	} else {
		for off := range idx.vectors {
			consider(int32(off))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Offset < results[j].Offset
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Reconstruct returns a copy of the stored (normalised) vector at offset.
func (idx *Index) Reconstruct(offset int) ([]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if offset < 0 || offset >= len(idx.vectors) {
		return nil, fmt.Errorf("vecindex: offset %d out of range [0,%d): %w",
			offset, len(idx.vectors), domain.ErrNotFound)
	}
	out := make([]float32, idx.dim)
	copy(out, idx.vectors[offset])
	return out, nil
}

// Persist writes the current structure to disk.
func (idx *Index) Persist() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.persistLocked()
}

// upgradeLocked rebuilds the flat structure as an inverted-file index:
// all stored vectors train a k-means clustering with
// nlist = clamp(ntotal/10, 10, 100), then every vector is assigned to its
// nearest centroid. Offsets are untouched.
func (idx *Index) upgradeLocked() {
	ntotal := len(idx.vectors)
	nlist := ntotal / 10
	if nlist < minClusters {
		nlist = minClusters
	}
	if nlist > maxClusters {
		nlist = maxClusters
	}

	logger.Info("Upgrading vector index to inverted-file: %d vectors, %d clusters", ntotal, nlist)

	centroids := kmeans(idx.vectors, nlist)
	idx.ivf = &ivfState{
		nlist:     nlist,
		centroids: centroids,
		lists:     make([][]int32, nlist),
	}

	all := make([]int, ntotal)
	for i := range all {
		all[i] = i
	}
	idx.assignLocked(all)
}

// assignLocked places the given offsets into their nearest cluster lists.
func (idx *Index) assignLocked(offsets []int) {
	for _, off := range offsets {
		c := nearestCentroid(idx.vectors[off], idx.ivf.centroids)
		idx.ivf.lists[c] = append(idx.ivf.lists[c], int32(off))
	}
}

// probeLocked returns the candidate offsets from the clusters nearest to
// the query.
func (idx *Index) probeLocked(q []float32) []int32 {
	nprobe := defaultProbes
	if nprobe > idx.ivf.nlist {
		nprobe = idx.ivf.nlist
	}

	type centDist struct {
		cluster  int
		distance float64
	}
	dists := make([]centDist, len(idx.ivf.centroids))
	for c, centroid := range idx.ivf.centroids {
		dists[c] = centDist{cluster: c, distance: l2Distance(q, centroid)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].distance < dists[j].distance })

	var candidates []int32
	for _, cd := range dists[:nprobe] {
		candidates = append(candidates, idx.ivf.lists[cd.cluster]...)
	}
	return candidates
}

// Similarity converts an L2 distance over unit vectors into a score in
// [0,1]: max(0, 1 - d²/4). Identical vectors score 1.0; opposite vectors
// score 0.
func Similarity(distance float64) float64 {
	s := 1 - distance*distance/4
	if s < 0 {
		return 0
	}
	return s
}

// normalize scales v to unit L2 norm in place. Zero vectors are left alone.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// l2Distance returns the Euclidean distance between two vectors of equal
// length.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
