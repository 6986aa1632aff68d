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

package regress

import "strconv"

const (
	// DefaultPrecision 顯示用小數位數（至少 2 位）
	DefaultPrecision int = 2
	maxPrecision     int = 10
)

// NormPrecision 把顯示精度限制在 [2,10]
func NormPrecision(prec int) int {
	return max(DefaultPrecision, min(prec, maxPrecision))
}

// Equation 回傳 "y = ax + b" 形式的顯示字串，例如 "y = 5.00x + 50.00"。
// 只用於顯示，內部一律使用 Fit 的數值欄位。
func (f Fit) Equation(prec int) string {
	prec = NormPrecision(prec)
	b := f.Intercept
	sign := "+"
	if b < 0 {
		sign = "-"
		b = -b
	}
	return "y = " + formatFloat(f.Slope, prec) + "x " + sign + " " + formatFloat(b, prec)
}

// String 以預設精度顯示方程式
func (f Fit) String() string {
	return f.Equation(DefaultPrecision)
}

// FatText / ProteinText 以兩位小數顯示
func (c Composition) FatText() string {
	return formatFloat(c.Fat, DefaultPrecision)
}

func (c Composition) ProteinText() string {
	return formatFloat(c.Protein, DefaultPrecision)
}

func formatFloat(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	// 避免 "-0.00"
	if z := strconv.FormatFloat(0, 'f', prec, 64); s == "-"+z {
		return z
	}
	return s
}
