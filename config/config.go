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

// Package config 讀取 YAML 設定。
//
// 預設值以 go:embed 編進 binary（default.yaml），使用者設定檔會覆寫在預設值之上，
// 沒寫到的欄位維持預設。
package config

import (
	_ "embed"
	"io/fs"
	"strings"
	"time"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/session"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Addr      string        `yaml:"addr"`
	LogMode   string        `yaml:"log_mode"`
	LogBuffer int           `yaml:"log_buffer"`
	Precision int           `yaml:"precision"`
	Session   SessionConfig `yaml:"session"`
}

type SessionConfig struct {
	MaxPoints  int           `yaml:"max_points"`
	IdleTTL    time.Duration `yaml:"idle_ttl"`
	SweepEvery time.Duration `yaml:"sweep_every"`
}

// Default 回傳內嵌的預設設定
func Default() (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall default config")
	}
	return cfg, nil
}

// Parse 把 data 覆寫到預設設定之上並檢查
func Parse(data []byte) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load 從 fsys 讀取 name；name 為空字串時只用預設值。
// 不綁定路徑：本機可用 os.DirFS，部署可用 embed.FS。
func Load(fsys fs.FS, name string) (*Config, error) {
	if name == "" {
		cfg, err := Default()
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Valid()
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "read config failed", name)
	}
	return Parse(data)
}

// Valid 檢查並正規化設定
func (c *Config) Valid() error {
	c.Addr = strings.TrimSpace(c.Addr)
	if c.Addr == "" || !strings.Contains(c.Addr, ":") {
		return errs.Fatalf("addr must look like host:port or :port, got %q", c.Addr)
	}
	if c.LogBuffer <= 0 {
		c.LogBuffer = 1024
	}
	c.Precision = regress.NormPrecision(c.Precision)
	if c.Session.MaxPoints < 0 {
		return errs.NewFatal("session.max_points must be >= 0")
	}
	if c.Session.IdleTTL < 0 || c.Session.SweepEvery < 0 {
		return errs.NewFatal("session durations must be >= 0")
	}
	return nil
}

// SessionOptions 轉成 session.Store 的選項
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		MaxPoints:  c.Session.MaxPoints,
		IdleTTL:    c.Session.IdleTTL,
		SweepEvery: c.Session.SweepEvery,
	}
}
