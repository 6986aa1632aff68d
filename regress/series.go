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

// XY 圖表上的一個點
type XY struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Series 交給外部繪圖元件的資料。
//
// Measured 為原始觀測點；Trendline 為擬合直線在每個觀測 fat 上的值。
// 兩者順序都與觀測點輸入順序一致。沒有可用的 Fit 時 Trendline 為 nil。
type Series struct {
	Measured  []XY `json:"measured" yaml:"measured"`
	Trendline []XY `json:"trendline,omitempty" yaml:"trendline,omitempty"`
}

// BuildSeries 依觀測點與（可選的）擬合結果產生圖表資料
func BuildSeries(points []Point, fit *Fit) Series {
	s := Series{Measured: make([]XY, len(points))}
	for i, p := range points {
		s.Measured[i] = XY{X: p.Fat, Y: p.Resistance}
	}
	if fit == nil {
		return s
	}
	s.Trendline = make([]XY, len(points))
	for i, p := range points {
		s.Trendline[i] = XY{X: p.Fat, Y: PredictResistance(*fit, p.Fat)}
	}
	return s
}

// Series 產生目前觀測點的圖表資料；無法擬合時只回傳 Measured。
func (e *Engine) Series() Series {
	fit, err := e.Fit()
	if err != nil {
		return BuildSeries(e.points, nil)
	}
	return BuildSeries(e.points, &fit)
}
