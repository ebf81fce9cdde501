// Package arima implements a non-seasonal autoregressive integrated
// moving-average model fitted on price levels, with automatic order
// selection by stepwise AICc search. Estimation uses the
// Hannan-Rissanen regression: a long autoregression provides residual
// estimates, then AR and MA coefficients are solved jointly by least
// squares.
package arima

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Order identifies an ARIMA(p,d,q) specification.
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// String returns the conventional order notation.
func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// IsValid checks if the order is estimable.
func (o Order) IsValid() bool {
	return o.P >= 0 && o.D >= 0 && o.Q >= 0 && o.P+o.Q > 0
}

// Model is a fitted ARIMA model. Coefficients live on the differenced
// scale; Forecast integrates back so outputs are always price levels.
type Model struct {
	order    Order
	constant float64
	arCoeffs []float64
	maCoeffs []float64

	original   []float64 // training series on the price scale
	stationary []float64 // training series after differencing
	residuals  []float64 // one-step residuals on the stationary scale
	sigma2     float64
	aicc       float64
	loglike    float64
}

// Order returns the model's specification.
func (m *Model) Order() Order { return m.order }

// AICc returns the corrected Akaike information criterion of the fit.
func (m *Model) AICc() float64 { return m.aicc }

// Fit estimates an ARIMA model of the given order on the series using
// conditional least squares. It returns an error when the series is too
// short or the regression is singular; callers searching over orders
// treat that as a skippable candidate.
func Fit(series []float64, order Order) (*Model, error) {
	if !order.IsValid() {
		return nil, fmt.Errorf("invalid order %s", order)
	}

	stationary := difference(series, order.D)
	minLen := order.P + order.Q + order.D + 2
	if len(stationary) <= minLen {
		return nil, fmt.Errorf("series too short for %s: %d stationary points", order, len(stationary))
	}

	m := &Model{
		order:      order,
		original:   append([]float64(nil), series...),
		stationary: stationary,
	}

	if err := m.estimate(); err != nil {
		return nil, err
	}
	return m, nil
}

// estimate runs the Hannan-Rissanen procedure: a long AR fit produces
// residual estimates, then the ARMA regression is solved by QR least
// squares and refined once with updated residuals.
func (m *Model) estimate() error {
	residuals, err := longARResiduals(m.stationary, m.order)
	if err != nil {
		return err
	}

	for iter := 0; iter < 2; iter++ {
		if err := m.solveARMA(residuals); err != nil {
			return err
		}
		residuals = m.computeResiduals()
	}

	m.residuals = residuals
	m.computeCriteria()
	return nil
}

// longARResiduals fits a high-order AR model and returns its residuals,
// used as proxies for the unobserved MA innovations. When q is zero the
// residual series is only needed for variance estimation.
func longARResiduals(data []float64, order Order) ([]float64, error) {
	longP := order.P + order.Q + 2
	if longP*4 > len(data) {
		longP = len(data) / 4
	}
	if longP < 1 {
		longP = 1
	}

	coeffs, err := solveLeastSquares(arDesign(data, longP), data[longP:])
	if err != nil {
		return nil, fmt.Errorf("long AR stage: %w", err)
	}

	residuals := make([]float64, len(data))
	for i := longP; i < len(data); i++ {
		pred := coeffs[0]
		for j := 1; j <= longP; j++ {
			pred += coeffs[j] * data[i-j]
		}
		residuals[i] = data[i] - pred
	}
	return residuals, nil
}

// solveARMA regresses the stationary series on its own lags and on
// lagged residual estimates.
func (m *Model) solveARMA(residuals []float64) error {
	p, q := m.order.P, m.order.Q
	offset := p
	if q > offset {
		offset = q
	}
	n := len(m.stationary)
	rows := n - offset
	if rows <= p+q+1 {
		return fmt.Errorf("insufficient rows for ARMA regression: %d", rows)
	}

	X := mat.NewDense(rows, 1+p+q, nil)
	y := make([]float64, rows)
	for i := offset; i < n; i++ {
		r := i - offset
		y[r] = m.stationary[i]
		X.Set(r, 0, 1)
		for j := 1; j <= p; j++ {
			X.Set(r, j, m.stationary[i-j])
		}
		for j := 1; j <= q; j++ {
			X.Set(r, p+j, residuals[i-j])
		}
	}

	coeffs, err := solveDense(X, y)
	if err != nil {
		return fmt.Errorf("ARMA regression: %w", err)
	}

	m.constant = coeffs[0]
	m.arCoeffs = append([]float64(nil), coeffs[1:1+p]...)
	m.maCoeffs = append([]float64(nil), coeffs[1+p:]...)

	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("non-convergent coefficients for %s", m.order)
		}
	}

	// An explosive AR or non-invertible MA polynomial makes the residual
	// and forecast recursions diverge; treat the candidate as
	// non-convergent so the order search skips it.
	if !lagPolynomialStable(m.arCoeffs) {
		return fmt.Errorf("non-stationary AR coefficients for %s", m.order)
	}
	if !lagPolynomialStable(negated(m.maCoeffs)) {
		return fmt.Errorf("non-invertible MA coefficients for %s", m.order)
	}
	return nil
}

// lagPolynomialStable reports whether the recursion x_t = c_1 x_{t-1} +
// ... + c_k x_{t-k} decays, i.e. all eigenvalues of the companion matrix
// lie strictly inside the unit circle.
func lagPolynomialStable(coeffs []float64) bool {
	k := len(coeffs)
	if k == 0 {
		return true
	}
	if k == 1 {
		return math.Abs(coeffs[0]) < 1
	}

	companion := mat.NewDense(k, k, nil)
	for j, c := range coeffs {
		companion.Set(0, j, c)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}

func negated(coeffs []float64) []float64 {
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = -c
	}
	return out
}

// computeResiduals recomputes one-step residuals under the current
// coefficients, feeding the next refinement pass.
func (m *Model) computeResiduals() []float64 {
	p, q := m.order.P, m.order.Q
	n := len(m.stationary)
	residuals := make([]float64, n)

	offset := p
	if q > offset {
		offset = q
	}
	for i := offset; i < n; i++ {
		pred := m.constant
		for j := 1; j <= p; j++ {
			pred += m.arCoeffs[j-1] * m.stationary[i-j]
		}
		for j := 1; j <= q; j++ {
			pred += m.maCoeffs[j-1] * residuals[i-j]
		}
		residuals[i] = m.stationary[i] - pred
	}
	return residuals
}

// computeCriteria derives the residual variance, Gaussian log-likelihood
// and corrected AIC used by the order search.
func (m *Model) computeCriteria() {
	offset := m.order.P
	if m.order.Q > offset {
		offset = m.order.Q
	}
	n := len(m.stationary) - offset
	if n < 1 {
		n = 1
	}

	ss := 0.0
	for _, r := range m.residuals[offset:] {
		ss += r * r
	}
	m.sigma2 = ss / float64(n)
	if m.sigma2 <= 0 {
		m.sigma2 = 1e-12
	}

	m.loglike = -0.5 * float64(n) * (math.Log(2*math.Pi*m.sigma2) + 1)

	k := float64(m.order.P + m.order.Q + 2) // coefficients, constant, variance
	aic := -2*m.loglike + 2*k
	denom := float64(n) - k - 1
	if denom <= 0 {
		m.aicc = math.Inf(1)
	} else {
		m.aicc = aic + 2*k*(k+1)/denom
	}
}

// Forecast projects h steps beyond the end of the training series and
// returns the projections on the original price scale.
func (m *Model) Forecast(h int) []float64 {
	if h <= 0 {
		return nil
	}

	p, q := m.order.P, m.order.Q
	extended := append([]float64(nil), m.stationary...)
	residuals := append([]float64(nil), m.residuals...)
	levels := append([]float64(nil), m.original...)

	out := make([]float64, h)
	for step := 0; step < h; step++ {
		idx := len(extended)
		pred := m.constant
		for j := 1; j <= p; j++ {
			if idx-j >= 0 {
				pred += m.arCoeffs[j-1] * extended[idx-j]
			}
		}
		for j := 1; j <= q; j++ {
			if idx-j >= 0 {
				pred += m.maCoeffs[j-1] * residuals[idx-j]
			}
		}

		level := integrate(pred, levels, m.order.D)
		out[step] = level

		extended = append(extended, pred)
		residuals = append(residuals, 0) // future innovations have zero expectation
		levels = append(levels, level)
	}
	return out
}

// FittedValues returns in-sample one-step fitted values on the price
// scale, padded with the actual price where the model has no history
// yet. The slice is truncated or extended with trailing forecasts so its
// length matches n, letting callers align it with a full engineered
// series for diagnostics.
func (m *Model) FittedValues(n int) []float64 {
	p, q, d := m.order.P, m.order.Q, m.order.D
	offset := p
	if q > offset {
		offset = q
	}

	fitted := make([]float64, len(m.original))
	for i := range fitted {
		si := i - d // index on the stationary scale
		if si < offset || si >= len(m.stationary) {
			fitted[i] = m.original[i]
			continue
		}
		pred := m.constant
		for j := 1; j <= p; j++ {
			pred += m.arCoeffs[j-1] * m.stationary[si-j]
		}
		for j := 1; j <= q; j++ {
			pred += m.maCoeffs[j-1] * m.residuals[si-j]
		}
		fitted[i] = integrate(pred, m.original[:i], d)
	}

	if n <= len(fitted) {
		return fitted[:n]
	}
	return append(fitted, m.Forecast(n-len(fitted))...)
}

// difference applies d rounds of first differencing.
func difference(data []float64, d int) []float64 {
	out := append([]float64(nil), data...)
	for round := 0; round < d; round++ {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for i := 1; i < len(out); i++ {
			next[i-1] = out[i] - out[i-1]
		}
		out = next
	}
	return out
}

// integrate reverses d rounds of differencing for a single forecast
// value, reconstructing the level from the tail of the level history.
func integrate(stationaryForecast float64, levels []float64, d int) float64 {
	if d <= 0 || len(levels) == 0 {
		return stationaryForecast
	}

	// lastDiffs[k] holds the most recent Δ^k value of the level series.
	lastDiffs := make([]float64, d)
	series := append([]float64(nil), levels...)
	for k := 1; k < d; k++ {
		next := make([]float64, len(series)-1)
		for i := 1; i < len(series); i++ {
			next[i-1] = series[i] - series[i-1]
		}
		series = next
		if len(series) == 0 {
			return levels[len(levels)-1] + stationaryForecast
		}
		lastDiffs[k] = series[len(series)-1]
	}

	acc := stationaryForecast
	for k := d - 1; k >= 1; k-- {
		acc += lastDiffs[k]
	}
	return levels[len(levels)-1] + acc
}

// arDesign builds the regression matrix for an AR(p) fit with intercept.
func arDesign(data []float64, p int) *mat.Dense {
	rows := len(data) - p
	X := mat.NewDense(rows, p+1, nil)
	for i := p; i < len(data); i++ {
		r := i - p
		X.Set(r, 0, 1)
		for j := 1; j <= p; j++ {
			X.Set(r, j, data[i-j])
		}
	}
	return X
}

// solveLeastSquares solves min ||Xb - y|| via QR decomposition.
func solveLeastSquares(X *mat.Dense, y []float64) ([]float64, error) {
	return solveDense(X, y)
}

func solveDense(X *mat.Dense, y []float64) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(X)

	_, cols := X.Dims()
	b := mat.NewVecDense(len(y), y)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("singular regression matrix: %w", err)
	}

	out := make([]float64, cols)
	for i := 0; i < cols; i++ {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}
