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

// Package regress 是體脂校正的回歸引擎。
//
// 它持有依輸入順序排列的 (fat%, resistance) 觀測點，對其做最小平方法直線擬合
// resistance = a·fat + b，並提供兩個方向的推算：
//   - 正向：由 fat% 推算電阻值（畫趨勢線用）。
//   - 反向：由電阻值推算 fat% 與 protein%（各自夾在 [0,100]）。
//
// Engine 本身不做同步；多使用者情境請一個 session 一個 Engine（見 session 套件）。
package regress

import (
	"fmt"
	"math"

	"github.com/zintix-labs/bodylab/errs"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinPercent / MaxPercent 是組成百分比的合法範圍
	MinPercent float64 = 0
	MaxPercent float64 = 100
)

var (
	// ErrInsufficientData : 擬合時觀測點少於 2 筆
	ErrInsufficientData = errs.NewCode(errs.Warn, "insufficient_data", "at least 2 points are required to fit a line")
	// ErrDegenerateFit : fat 值沒有變異（斜率無定義），或反推時斜率為 0
	ErrDegenerateFit = errs.NewCode(errs.Warn, "degenerate_fit", "fat values have zero variance or slope is zero")
	// ErrInvalidPoint : 觀測值不是有限實數
	ErrInvalidPoint = errs.NewCode(errs.Warn, "invalid_point", "fat and resistance must be finite numbers")
)

// Point 一筆觀測：脂肪比例(%) 與 電阻值(Ω)
type Point struct {
	Fat        float64 `json:"fat" yaml:"fat"`
	Resistance float64 `json:"resistance" yaml:"resistance"`
}

// Fit 是擬合結果的快照，建立後不會再變動。
//
// Slope / Intercept 保持完整精度；只有顯示時才做四捨五入。
type Fit struct {
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	RSquared  float64 `json:"r_squared" yaml:"r_squared"`
	N         int     `json:"n" yaml:"n"`
}

// Composition 反推結果，fat 與 protein 各自獨立夾在 [0,100]，
// 夾值後兩者相加不一定等於 100。
type Composition struct {
	Fat     float64 `json:"fat" yaml:"fat"`
	Protein float64 `json:"protein" yaml:"protein"`
}

// ValidatePoint 檢查觀測值是否為有限實數。
// Engine.AddPoint 不做檢查，呼叫端（表單 / API / 檔案讀取）應先呼叫它。
func ValidatePoint(fat, resistance float64) error {
	if !finite(fat) || !finite(resistance) {
		return ErrInvalidPoint.With(fmt.Sprintf("fat=%v resistance=%v", fat, resistance))
	}
	return nil
}

// ============================================================
// ** Engine **
// ============================================================

// Engine 持有觀測點序列。零值可直接使用。
type Engine struct {
	points []Point
}

// New 建立空的 Engine
func New() *Engine {
	return &Engine{}
}

// NewWith 以既有觀測點建立 Engine（會複製一份）
func NewWith(points []Point) *Engine {
	e := &Engine{points: make([]Point, len(points))}
	copy(e.points, points)
	return e
}

// AddPoint 依序追加一筆觀測。先前取得的 Fit 不受影響，但已過期，需要重新 Fit。
func (e *Engine) AddPoint(fat, resistance float64) {
	e.points = append(e.points, Point{Fat: fat, Resistance: resistance})
}

// Len 目前觀測點數
func (e *Engine) Len() int {
	return len(e.points)
}

// Points 回傳觀測點的副本（依輸入順序）
func (e *Engine) Points() []Point {
	out := make([]Point, len(e.points))
	copy(out, e.points)
	return out
}

// Reset 清空觀測點
func (e *Engine) Reset() {
	e.points = e.points[:0]
}

// Fit 對目前所有觀測點做最小平方法直線擬合。
//
//	a = Σ((x-x̄)(y-ȳ)) / Σ((x-x̄)²)
//	b = ȳ - a·x̄
//
// 少於 2 點回 ErrInsufficientData；fat 全部相同回 ErrDegenerateFit。
func (e *Engine) Fit() (Fit, error) {
	return FitPoints(e.points)
}

// FitPoints 與 Engine.Fit 相同，但直接吃觀測點切片。
func FitPoints(points []Point) (Fit, error) {
	n := len(points)
	if n < 2 {
		return Fit{}, ErrInsufficientData.With(fmt.Sprintf("points=%d", n))
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	distinct := false
	for i, p := range points {
		xs[i] = p.Fat
		ys[i] = p.Resistance
		if p.Fat != points[0].Fat {
			distinct = true
		}
	}
	// 分母 Σ(x-x̄)² 為 0：必須明確回報，不能讓 Inf/NaN 流出去
	if !distinct {
		return Fit{}, ErrDegenerateFit.With(fmt.Sprintf("all %d fat values equal %v", n, points[0].Fat))
	}

	// gonum 回傳 (alpha, beta) = (intercept, slope)
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !finite(alpha) || !finite(beta) {
		return Fit{}, ErrDegenerateFit.With("slope or intercept is not finite")
	}
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) {
		// 所有 resistance 相同時 SST=0，直線完全貼合
		r2 = 1
	}
	return Fit{Slope: beta, Intercept: alpha, RSquared: r2, N: n}, nil
}

// ============================================================
// ** 推算 **
// ============================================================

// PredictResistance 正向推算：a·fat + b
func PredictResistance(fit Fit, fat float64) float64 {
	return fit.Slope*fat + fit.Intercept
}

// PredictComposition 反向推算：fat = (r - b) / a，protein = 100 - fat，
// 兩者各自夾在 [0,100]，不重新正規化總和。
func PredictComposition(fit Fit, resistance float64) (Composition, error) {
	if fit.Slope == 0 {
		return Composition{}, ErrDegenerateFit.With("slope is zero")
	}
	fat := RawFat(fit, resistance)
	protein := MaxPercent - fat
	return Composition{
		Fat:     Clamp(fat),
		Protein: Clamp(protein),
	}, nil
}

// RawFat 反推未夾值的 fat%，斜率為 0 時回傳 NaN。
func RawFat(fit Fit, resistance float64) float64 {
	if fit.Slope == 0 {
		return math.NaN()
	}
	return (resistance - fit.Intercept) / fit.Slope
}

// Clamp 把百分比夾到 [0,100]
func Clamp(v float64) float64 {
	return max(MinPercent, min(v, MaxPercent))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
