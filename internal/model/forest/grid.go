package forest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// SearchConfig controls the exhaustive hyperparameter search.
type SearchConfig struct {
	TreeCounts []int `json:"tree_counts"`
	MaxDepths  []int `json:"max_depths"`
	KFolds     int   `json:"k_folds"`
	Seed       int64 `json:"seed"`

	// MaxConcurrency bounds the number of candidates evaluated in
	// parallel. It affects throughput only, never results.
	MaxConcurrency int `json:"max_concurrency"`
}

// DefaultSearchConfig returns the reference search grid: tree counts
// {100, 200, 300} crossed with depths {5, 10, 15}, scored by 5-fold
// cross-validated mean squared error.
func DefaultSearchConfig(seed int64) SearchConfig {
	return SearchConfig{
		TreeCounts:     []int{100, 200, 300},
		MaxDepths:      []int{5, 10, 15},
		KFolds:         5,
		Seed:           seed,
		MaxConcurrency: 4,
	}
}

// IsValid checks if the search configuration is usable.
func (sc SearchConfig) IsValid() bool {
	return len(sc.TreeCounts) > 0 && len(sc.MaxDepths) > 0 &&
		sc.KFolds > 1 && sc.MaxConcurrency > 0
}

// SearchResult reports the winning configuration and its CV score.
type SearchResult struct {
	Best      Config        `json:"best"`
	BestMSE   float64       `json:"best_mse"`
	Evaluated int           `json:"evaluated"`
	Duration  time.Duration `json:"duration"`
}

// candidateScore pairs a grid candidate with its cross-validated error.
// The grid index breaks ties so the winner does not depend on worker
// scheduling.
type candidateScore struct {
	index int
	cfg   Config
	mse   float64
	err   error
}

// GridSearch evaluates every tree-count/depth combination by k-fold
// cross-validation minimizing MSE, then refits the winning configuration
// on the full training set. Folds are contiguous ordered blocks, keeping
// the temporal ordering of the rows intact inside each fold.
func GridSearch(ctx context.Context, X [][]float64, y []float64, sc SearchConfig, logger *slog.Logger) (*Regressor, *SearchResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !sc.IsValid() {
		return nil, nil, fmt.Errorf("invalid search config")
	}
	if len(X) < sc.KFolds {
		return nil, nil, fmt.Errorf("insufficient rows for %d-fold cross-validation: %d", sc.KFolds, len(X))
	}

	start := time.Now()

	grid := make([]Config, 0, len(sc.TreeCounts)*len(sc.MaxDepths))
	for _, trees := range sc.TreeCounts {
		for _, depth := range sc.MaxDepths {
			grid = append(grid, Config{Trees: trees, MaxDepth: depth, Seed: sc.Seed})
		}
	}

	logger.InfoContext(ctx, "starting hyperparameter grid search",
		"candidates", len(grid),
		"k_folds", sc.KFolds,
		"rows", len(X),
	)

	scores := make([]candidateScore, len(grid))
	semaphore := make(chan struct{}, sc.MaxConcurrency)
	var wg sync.WaitGroup

	for i, cfg := range grid {
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("grid search cancelled: %w", ctx.Err())
		default:
		}

		wg.Add(1)
		go func(idx int, c Config) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			mse, err := crossValidate(ctx, X, y, c, sc.KFolds)
			scores[idx] = candidateScore{index: idx, cfg: c, mse: mse, err: err}
		}(i, cfg)
	}
	wg.Wait()

	best := candidateScore{index: -1, mse: math.Inf(1)}
	evaluated := 0
	for _, s := range scores {
		if s.err != nil {
			logger.DebugContext(ctx, "candidate evaluation failed",
				"trees", s.cfg.Trees,
				"max_depth", s.cfg.MaxDepth,
				"error", s.err,
			)
			continue
		}
		evaluated++
		if s.mse < best.mse || (s.mse == best.mse && s.index < best.index) {
			best = s
		}
	}
	if best.index < 0 {
		return nil, nil, fmt.Errorf("no grid candidate could be evaluated")
	}

	// Refit the winner on the full training segment.
	model, err := Fit(X, y, best.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("refit winning config: %w", err)
	}

	result := &SearchResult{
		Best:      best.cfg,
		BestMSE:   best.mse,
		Evaluated: evaluated,
		Duration:  time.Since(start),
	}

	logger.InfoContext(ctx, "grid search completed",
		"best_trees", best.cfg.Trees,
		"best_max_depth", best.cfg.MaxDepth,
		"best_mse", best.mse,
		"evaluated", evaluated,
		"duration", result.Duration,
	)

	return model, result, nil
}

// crossValidate scores one candidate by k-fold CV. Fold boundaries are a
// pure function of the row count, and every fold model derives its rng
// from the candidate seed, so the score is independent of evaluation
// order.
func crossValidate(ctx context.Context, X [][]float64, y []float64, cfg Config, k int) (float64, error) {
	n := len(X)
	foldSize := n / k

	totalSquared := 0.0
	totalCount := 0

	for fold := 0; fold < k; fold++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		lo := fold * foldSize
		hi := lo + foldSize
		if fold == k-1 {
			hi = n
		}

		trainX := make([][]float64, 0, n-(hi-lo))
		trainY := make([]float64, 0, n-(hi-lo))
		trainX = append(trainX, X[:lo]...)
		trainX = append(trainX, X[hi:]...)
		trainY = append(trainY, y[:lo]...)
		trainY = append(trainY, y[hi:]...)

		if len(trainX) == 0 {
			return 0, fmt.Errorf("fold %d leaves no training rows", fold)
		}

		foldCfg := cfg
		foldCfg.Seed = cfg.Seed + int64(fold+1)*foldSeedStride
		model, err := Fit(trainX, trainY, foldCfg)
		if err != nil {
			return 0, fmt.Errorf("fit fold %d: %w", fold, err)
		}

		preds := model.Predict(X[lo:hi])
		for i, p := range preds {
			diff := p - y[lo+i]
			totalSquared += diff * diff
		}
		totalCount += hi - lo
	}

	if totalCount == 0 {
		return 0, fmt.Errorf("no held-out rows scored")
	}
	return totalSquared / float64(totalCount), nil
}

// foldSeedStride separates per-fold rng streams far enough that tree
// seeds (seed + tree index) never collide across folds.
const foldSeedStride = 1_000_003
