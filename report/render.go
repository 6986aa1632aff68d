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
	"encoding/json"
	"io"

	"github.com/zintix-labs/bodylab/errs"
	"gopkg.in/yaml.v3"
)

// Render 定義輸出行為
type Render interface {
	Write(w io.Writer, r *Report) error
}

// Json渲染
type JsonRender struct{ Indent bool }

func (jr *JsonRender) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if jr.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, r *Report) error {
	return forceReadableList(w, r)
}

// 表格渲染
type TableRender struct{}

func (tr *TableRender) Write(w io.Writer, r *Report) error {
	return r.StdOut(w)
}

// RenderByName 依名稱取得渲染器：table | json | yaml
func RenderByName(name string) (Render, error) {
	switch name {
	case "", "table":
		return &TableRender{}, nil
	case "json":
		return &JsonRender{Indent: true}, nil
	case "yaml", "yml":
		return &YAMLRender{}, nil
	default:
		return nil, errs.Warnf("unknown format %q: want table|json|yaml", name)
	}
}

// YAML 內層方法
//
// 最內層的 sequence（例如 series 的一個點）用 flow style：{x: 10, y: 100}、[..]，
// 外層維度保持展開，閱讀起來比較像表格。
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadable(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadable(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			styleReadable(c)
		}
	case yaml.MappingNode:
		leaf := true
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				leaf = false
			}
			styleReadable(c)
		}
		// 只有純量的小 mapping（例如 {x, y}）在 sequence 中以 flow style 呈現
		if leaf && len(n.Content) <= 4 {
			n.Style = yaml.FlowStyle
		}
	case yaml.SequenceNode:
		hasChild := false
		for _, c := range n.Content {
			if c.Kind == yaml.SequenceNode {
				hasChild = true
			}
			styleReadable(c)
		}
		if !hasChild && allScalar(n.Content) {
			n.Style = yaml.FlowStyle
		}
	}
}

func allScalar(ns []*yaml.Node) bool {
	for _, c := range ns {
		if c.Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}
