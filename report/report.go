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

package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var lang language.Tag = language.English

// Report 一次擬合 + 一批反推的完整結果
type Report struct {
	Equation    string         `json:"equation" yaml:"equation"`
	Fit         regress.Fit    `json:"fit" yaml:"fit"`
	Series      regress.Series `json:"series" yaml:"series"`
	Predictions []Prediction   `json:"predictions" yaml:"predictions"`
}

// Prediction 單筆反推
//
// RawFat 為未夾值的結果，非有限值（斜率極小時可能溢位）時為 nil；
// Composition 為夾值後；FatText / ProteinText 為兩位小數顯示值
type Prediction struct {
	Resistance  float64             `json:"resistance" yaml:"resistance"`
	RawFat      *float64            `json:"raw_fat,omitempty" yaml:"raw_fat,omitempty"`
	Composition regress.Composition `json:"composition" yaml:"composition"`
	FatText     string              `json:"fat_text" yaml:"fat_text"`
	ProteinText string              `json:"protein_text" yaml:"protein_text"`
}

// Build 擬合 points 並對每個 query 反推組成。
// 擬合失敗（資料不足 / 退化）時回傳錯誤，不產生部分報告。
func Build(points []regress.Point, queries []float64, prec int) (*Report, error) {
	fit, err := regress.FitPoints(points)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Equation:    fit.Equation(prec),
		Fit:         fit,
		Series:      regress.BuildSeries(points, &fit),
		Predictions: make([]Prediction, 0, len(queries)),
	}
	for _, q := range queries {
		p, err := Predict(fit, q)
		if err != nil {
			return nil, err
		}
		r.Predictions = append(r.Predictions, p)
	}
	return r, nil
}

// Predict 單筆反推並附上顯示字串
func Predict(fit regress.Fit, resistance float64) (Prediction, error) {
	c, err := regress.PredictComposition(fit, resistance)
	if err != nil {
		return Prediction{}, err
	}
	var raw *float64
	if v := regress.RawFat(fit, resistance); !math.IsNaN(v) && !math.IsInf(v, 0) {
		raw = &v
	}
	return Prediction{
		Resistance:  resistance,
		RawFat:      raw,
		Composition: c,
		FatText:     c.FatText(),
		ProteinText: c.ProteinText(),
	}, nil
}

// ============================================================
// ** 資料集讀取 **
// ============================================================

// Dataset 觀測資料檔格式（YAML，JSON 亦可）
//
//	points:
//	  - {fat: 10, resistance: 100}
//	  - {fat: 20, resistance: 150}
type Dataset struct {
	Points []regress.Point `yaml:"points"`
}

// ReadPoints 讀取資料集並逐筆檢查是否為有限實數
func ReadPoints(r io.Reader) ([]regress.Point, error) {
	ds := new(Dataset)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(ds); err != nil {
		if err == io.EOF {
			return nil, errs.NewWarn("dataset is empty")
		}
		return nil, errs.Wrap(err, "failed to decode dataset")
	}
	for i, p := range ds.Points {
		if err := regress.ValidatePoint(p.Fat, p.Resistance); err != nil {
			return nil, errs.WrapWithExtra(err, "invalid dataset point", fmt.Sprintf("index=%d", i))
		}
	}
	return ds.Points, nil
}

// ============================================================
// ** StdOut **
// ============================================================

// StdOut 以表格輸出
func (r *Report) StdOut(w io.Writer) error {
	p := message.NewPrinter(lang)
	keys := []string{"Equation", "Slope", "Intercept", "R²", "Points"}
	msg := map[string]string{
		"Equation":  r.Equation,
		"Slope":     p.Sprintf("%.6f", r.Fit.Slope),
		"Intercept": p.Sprintf("%.6f", r.Fit.Intercept),
		"R²":        p.Sprintf("%.4f", r.Fit.RSquared),
		"Points":    p.Sprintf("%d", r.Fit.N),
	}
	for i, pr := range r.Predictions {
		k := p.Sprintf("R=%.2f Ω", pr.Resistance)
		if _, dup := msg[k]; dup {
			k = p.Sprintf("%s #%d", k, i+1)
		}
		keys = append(keys, k)
		msg[k] = p.Sprintf("fat %s%% / protein %s%%", pr.FatText, pr.ProteinText)
	}
	_, err := io.WriteString(w, fmtTable("Fat / Resistance Fit", keys, msg))
	return err
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := runewidth.StringWidth(title) / 2
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := max(0, (totalInner-titleW)/2)
	right := max(0, totalInner-titleW-left)

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString("| " + k + blank(maxKeyLen-2-runewidth.StringWidth(k)) +
			" | " + msg[k] + blank(maxValLen-2-runewidth.StringWidth(msg[k])) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
