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

// fit 從資料檔擬合並批次反推組成，不需要啟動 server。
//
//	go run ./cmd/fit -data points.yaml -r 125,600
//	go run ./cmd/fit -data points.yaml -queries ohms.txt -format yaml -progress
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/report"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	data     string
	queries  string
	rs       string
	format   string
	prec     int
	progress bool
}

func main() {
	cfg := bindVar()
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func bindVar() *config {
	cfg := new(config)
	flag.StringVar(&cfg.data, "data", "", "dataset file (YAML/JSON: points: [{fat, resistance}])")
	flag.StringVar(&cfg.rs, "r", "", "comma separated resistance values to predict")
	flag.StringVar(&cfg.queries, "queries", "", "file with one resistance value per line")
	flag.StringVar(&cfg.format, "format", "table", "output format: table|json|yaml")
	flag.IntVar(&cfg.prec, "prec", regress.DefaultPrecision, "equation display precision (>= 2)")
	flag.BoolVar(&cfg.progress, "progress", false, "show a progress bar while predicting")
	flag.Parse()
	return cfg
}

func run(cfg *config, out io.Writer) error {
	if cfg.data == "" {
		return errs.NewWarn("-data is required")
	}
	rd, err := report.RenderByName(cfg.format)
	if err != nil {
		return err
	}
	points, err := readDataset(cfg.data)
	if err != nil {
		return err
	}
	queries, err := parseList(cfg.rs)
	if err != nil {
		return err
	}
	if cfg.queries != "" {
		more, err := readQueries(cfg.queries)
		if err != nil {
			return err
		}
		queries = append(queries, more...)
	}

	// 先只擬合，預測逐筆做以便顯示進度
	r, err := report.Build(points, nil, cfg.prec)
	if err != nil {
		return err
	}
	if cfg.format == "table" {
		p := message.NewPrinter(language.English)
		p.Fprintf(out, "[POINTS:%d] [QUERIES:%d]\n", len(points), len(queries))
	}

	var bar *pb.ProgressBar
	if cfg.progress && len(queries) > 0 {
		bar = pb.New(len(queries)).SetWriter(os.Stderr)
		bar.Set(pb.CleanOnFinish, true)
		bar.Start()
	}
	for _, q := range queries {
		pr, err := report.Predict(r.Fit, q)
		if err != nil {
			return err
		}
		r.Predictions = append(r.Predictions, pr)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return rd.Write(out, r)
}

func readDataset(path string) ([]regress.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "open dataset failed", path)
	}
	defer f.Close()
	return report.ReadPoints(f)
}

func readQueries(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "open queries failed", path)
	}
	defer f.Close()
	var out []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := parseResistance(s)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "bad query line", fmt.Sprintf("%s:%d", path, line))
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, "read queries failed")
	}
	return out, nil
}

func parseList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := parseResistance(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseResistance(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errs.Warnf("resistance %q is not a number", s)
	}
	if err := regress.ValidatePoint(0, v); err != nil {
		return 0, err
	}
	return v, nil
}
