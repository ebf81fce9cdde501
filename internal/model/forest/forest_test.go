package forest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData builds a noisy linear target over two informative
// features plus one pure-noise feature.
func syntheticData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.Float64() * 10
		b := rng.Float64() * 10
		noise := rng.NormFloat64() * 0.1
		X[i] = []float64{a, b, rng.Float64()}
		y[i] = 3*a - 2*b + noise
	}
	return X, y
}

func TestFit_InvalidConfig(t *testing.T) {
	X, y := syntheticData(10, 1)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero trees", cfg: Config{Trees: 0, MaxDepth: 5}},
		{name: "zero depth", cfg: Config{Trees: 10, MaxDepth: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(X, y, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFit_MismatchedData(t *testing.T) {
	X, y := syntheticData(10, 1)
	_, err := Fit(X, y[:5], Config{Trees: 5, MaxDepth: 3})
	assert.Error(t, err)

	_, err = Fit(nil, nil, Config{Trees: 5, MaxDepth: 3})
	assert.Error(t, err)
}

func TestFit_Deterministic(t *testing.T) {
	X, y := syntheticData(200, 7)
	cfg := Config{Trees: 50, MaxDepth: 8, Seed: 42}

	first, err := Fit(X, y, cfg)
	require.NoError(t, err)
	second, err := Fit(X, y, cfg)
	require.NoError(t, err)

	// Same seed, same data: predictions must be bit-identical even
	// though trees are grown concurrently.
	assert.Equal(t, first.Predict(X), second.Predict(X))
}

func TestFit_SeedChangesModel(t *testing.T) {
	X, y := syntheticData(200, 7)

	a, err := Fit(X, y, Config{Trees: 20, MaxDepth: 6, Seed: 1})
	require.NoError(t, err)
	b, err := Fit(X, y, Config{Trees: 20, MaxDepth: 6, Seed: 2})
	require.NoError(t, err)

	assert.NotEqual(t, a.Predict(X), b.Predict(X))
}

func TestFit_LearnsLinearSignal(t *testing.T) {
	X, y := syntheticData(500, 11)
	model, err := Fit(X, y, Config{Trees: 100, MaxDepth: 12, Seed: 42})
	require.NoError(t, err)

	preds := model.Predict(X)
	mse := 0.0
	for i, p := range preds {
		d := p - y[i]
		mse += d * d
	}
	mse /= float64(len(preds))

	// In-sample error should be far below the target variance
	// (roughly 108 for this generator).
	assert.Less(t, mse, 10.0)
}

func TestPredict_PreservesOrder(t *testing.T) {
	X, y := syntheticData(100, 3)
	model, err := Fit(X, y, Config{Trees: 10, MaxDepth: 5, Seed: 42})
	require.NoError(t, err)

	preds := model.Predict(X)
	require.Len(t, preds, len(X))
	for _, p := range preds {
		assert.False(t, math.IsNaN(p))
	}

	// Predicting a reversed matrix reverses the output.
	reversed := make([][]float64, len(X))
	for i := range X {
		reversed[i] = X[len(X)-1-i]
	}
	reversedPreds := model.Predict(reversed)
	for i := range preds {
		assert.Equal(t, preds[i], reversedPreds[len(preds)-1-i])
	}
}

func TestFeatureSubsetSize(t *testing.T) {
	assert.Equal(t, 1, featureSubsetSize(1))
	assert.Equal(t, 1, featureSubsetSize(3))
	assert.Equal(t, 5, featureSubsetSize(16))
}
