// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package regress_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zintix-labs/bodylab/regress"
)

const tol = 1e-9

func sampleEngine() *regress.Engine {
	e := regress.New()
	e.AddPoint(10, 100)
	e.AddPoint(20, 150)
	e.AddPoint(30, 200)
	return e
}

func TestFitKnownLine(t *testing.T) {
	fit, err := sampleEngine().Fit()
	require.NoError(t, err)

	assert.InDelta(t, 5.0, fit.Slope, tol)
	assert.InDelta(t, 50.0, fit.Intercept, tol)
	assert.InDelta(t, 1.0, fit.RSquared, tol)
	assert.Equal(t, 3, fit.N)
	assert.Equal(t, "y = 5.00x + 50.00", fit.String())
}

func TestFitClosedFormNoisy(t *testing.T) {
	// x̄ = 2.5, ȳ = 4.625, Sxy = 5.75, Sxx = 5 → a = 1.15, b = 1.75
	pts := []regress.Point{{1, 3}, {2, 4}, {3, 5}, {4, 6.5}}
	fit, err := regress.FitPoints(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.15, fit.Slope, tol)
	assert.InDelta(t, 1.75, fit.Intercept, tol)

	sse := func(a, b float64) float64 {
		s := 0.0
		for _, p := range pts {
			d := p.Resistance - (a*p.Fat + b)
			s += d * d
		}
		return s
	}
	best := sse(fit.Slope, fit.Intercept)
	for _, d := range []float64{-0.01, 0.01} {
		assert.Greater(t, sse(fit.Slope+d, fit.Intercept), best)
		assert.Greater(t, sse(fit.Slope, fit.Intercept+d), best)
	}
}

func TestFitInsufficientData(t *testing.T) {
	e := regress.New()
	_, err := e.Fit()
	require.ErrorIs(t, err, regress.ErrInsufficientData)

	e.AddPoint(10, 100)
	_, err = e.Fit()
	require.ErrorIs(t, err, regress.ErrInsufficientData)
	assert.False(t, errors.Is(err, regress.ErrDegenerateFit))
}

func TestFitDegenerate(t *testing.T) {
	e := regress.New()
	for _, r := range []float64{100, 150, 220} {
		e.AddPoint(0.1, r)
	}
	_, err := e.Fit()
	require.ErrorIs(t, err, regress.ErrDegenerateFit)
}

func TestPredictCompositionExample(t *testing.T) {
	fit, err := sampleEngine().Fit()
	require.NoError(t, err)

	c, err := regress.PredictComposition(fit, 125)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, c.Fat, tol)
	assert.InDelta(t, 85.0, c.Protein, tol)
	assert.Equal(t, "15.00", c.FatText())
	assert.Equal(t, "85.00", c.ProteinText())

	c, err = regress.PredictComposition(fit, 600)
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.Fat)
	assert.Equal(t, 0.0, c.Protein)
	assert.InDelta(t, 110.0, regress.RawFat(fit, 600), tol)
}

func TestPredictCompositionClampLow(t *testing.T) {
	fit := regress.Fit{Slope: 5, Intercept: 50}
	c, err := regress.PredictComposition(fit, 0) // fat = -10
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Fat)
	assert.Equal(t, 100.0, c.Protein)
}

func TestPredictCompositionZeroSlope(t *testing.T) {
	_, err := regress.PredictComposition(regress.Fit{Slope: 0, Intercept: 3}, 10)
	require.ErrorIs(t, err, regress.ErrDegenerateFit)
	assert.True(t, math.IsNaN(regress.RawFat(regress.Fit{}, 1)))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for range 200 {
		a := r.Float64()*20 - 10
		if math.Abs(a) < 1e-3 {
			continue
		}
		fit := regress.Fit{Slope: a, Intercept: r.Float64()*400 - 200}
		f := r.Float64() * 100
		c, err := regress.PredictComposition(fit, regress.PredictResistance(fit, f))
		require.NoError(t, err)
		assert.InDelta(t, f, c.Fat, 1e-6)
		assert.InDelta(t, 100-f, c.Protein, 1e-6)
	}
}

func TestFitIsSnapshot(t *testing.T) {
	e := sampleEngine()
	fit, err := e.Fit()
	require.NoError(t, err)
	before := fit

	e.AddPoint(40, 900)
	assert.Equal(t, before, fit)

	refit, err := e.Fit()
	require.NoError(t, err)
	assert.NotEqual(t, fit.Slope, refit.Slope)
	assert.Equal(t, 4, refit.N)
}

func TestPointsAreCopied(t *testing.T) {
	e := sampleEngine()
	pts := e.Points()
	pts[0].Fat = 99
	assert.Equal(t, 10.0, e.Points()[0].Fat)

	src := []regress.Point{{1, 2}, {3, 4}}
	e2 := regress.NewWith(src)
	src[0].Fat = 50
	assert.Equal(t, 1.0, e2.Points()[0].Fat)

	e2.Reset()
	assert.Equal(t, 0, e2.Len())
}

func TestSeries(t *testing.T) {
	e := regress.New()
	e.AddPoint(30, 200)
	s := e.Series()
	assert.Len(t, s.Measured, 1)
	assert.Nil(t, s.Trendline)

	e.AddPoint(10, 100)
	e.AddPoint(20, 150)
	s = e.Series()
	require.Len(t, s.Trendline, 3)
	// 順序與輸入一致
	assert.Equal(t, []float64{30, 10, 20}, []float64{s.Measured[0].X, s.Measured[1].X, s.Measured[2].X})
	for i, p := range s.Trendline {
		assert.Equal(t, s.Measured[i].X, p.X)
		assert.InDelta(t, 5*p.X+50, p.Y, tol)
	}
}

func TestEquationFormatting(t *testing.T) {
	fit := regress.Fit{Slope: -2.346, Intercept: -7.5}
	assert.Equal(t, "y = -2.35x - 7.50", fit.Equation(2))
	assert.Equal(t, "y = -2.346x - 7.500", fit.Equation(3))
	// 精度下限為 2
	assert.Equal(t, "y = -2.35x - 7.50", fit.Equation(0))

	zero := regress.Fit{Slope: 1, Intercept: math.Copysign(0, -1)}
	assert.Equal(t, "y = 1.00x + 0.00", zero.Equation(2))
}

func TestValidatePoint(t *testing.T) {
	require.NoError(t, regress.ValidatePoint(12.5, 300))
	require.ErrorIs(t, regress.ValidatePoint(math.NaN(), 1), regress.ErrInvalidPoint)
	require.ErrorIs(t, regress.ValidatePoint(1, math.Inf(1)), regress.ErrInvalidPoint)
}
