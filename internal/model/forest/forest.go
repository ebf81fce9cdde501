// Package forest implements a seeded random-forest regressor with
// exhaustive grid-search hyperparameter selection under k-fold
// cross-validation. Reproducibility is a correctness requirement: the
// same input and seed produce bit-identical predictions regardless of
// how many workers evaluate the search.
package forest

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
)

// Config holds the hyperparameters of a single forest.
type Config struct {
	Trees    int   `json:"trees"`
	MaxDepth int   `json:"max_depth"`
	Seed     int64 `json:"seed"`
}

// IsValid checks if the configuration is usable.
func (c Config) IsValid() bool {
	return c.Trees > 0 && c.MaxDepth > 0
}

// Regressor is a fitted ensemble of regression trees. The prediction is
// the mean of the individual tree outputs.
type Regressor struct {
	cfg   Config
	trees []*treeNode
}

// Fit trains the forest on the predictor matrix X and target y. Each
// tree draws its own bootstrap sample and feature subsets from a rng
// derived from the forest seed and the tree index, so trees may be grown
// concurrently without changing the result.
func Fit(X [][]float64, y []float64, cfg Config) (*Regressor, error) {
	if !cfg.IsValid() {
		return nil, fmt.Errorf("invalid forest config: trees=%d, max_depth=%d", cfg.Trees, cfg.MaxDepth)
	}
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("mismatched training data: %d rows, %d targets", len(X), len(y))
	}

	numFeatures := len(X[0])
	params := treeParams{
		maxDepth:      cfg.MaxDepth,
		minLeafSize:   1,
		featureSubset: featureSubsetSize(numFeatures),
	}

	trees := make([]*treeNode, cfg.Trees)

	workers := runtime.GOMAXPROCS(0)
	if workers > cfg.Trees {
		workers = cfg.Trees
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
				sample := bootstrapSample(len(X), rng)
				trees[t] = growTree(X, y, sample, params, 0, rng)
			}
		}()
	}
	for t := 0; t < cfg.Trees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return &Regressor{cfg: cfg, trees: trees}, nil
}

// Predict returns one prediction per input row, preserving order.
func (r *Regressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, tree := range r.trees {
			sum += tree.predict(x)
		}
		out[i] = sum / float64(len(r.trees))
	}
	return out
}

// Config returns the hyperparameters the forest was fitted with.
func (r *Regressor) Config() Config { return r.cfg }

// bootstrapSample draws n indices with replacement.
func bootstrapSample(n int, rng *rand.Rand) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}

// featureSubsetSize follows the usual p/3 heuristic for regression
// forests, with a floor of one feature.
func featureSubsetSize(numFeatures int) int {
	size := numFeatures / 3
	if size < 1 {
		size = 1
	}
	return size
}
