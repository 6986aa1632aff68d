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

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/bodylab/regress"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const dataset = "points:\n  - {fat: 10, resistance: 100}\n  - {fat: 20, resistance: 150}\n  - {fat: 30, resistance: 200}\n"

func TestRunTable(t *testing.T) {
	cfg := &config{
		data:     writeFile(t, "pts.yaml", dataset),
		rs:       "125, 600",
		queries:  writeFile(t, "q.txt", "# ohms\n150\n\n"),
		format:   "table",
		prec:     2,
		progress: true,
	}
	var out bytes.Buffer
	if err := run(cfg, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := out.String()
	for _, want := range []string{"[POINTS:3] [QUERIES:3]", "y = 5.00x + 50.00", "fat 15.00% / protein 85.00%", "fat 100.00% / protein 0.00%", "fat 20.00% / protein 80.00%"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(&config{format: "table"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without -data")
	}
	one := writeFile(t, "one.yaml", "points:\n  - {fat: 10, resistance: 100}\n")
	err := run(&config{data: one, format: "json"}, &bytes.Buffer{})
	if !errors.Is(err, regress.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	full := writeFile(t, "full.yaml", dataset)
	if err := run(&config{data: full, rs: "12,abc", format: "json"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := run(&config{data: full, format: "csv"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected format error")
	}
}
