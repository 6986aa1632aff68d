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
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zintix-labs/bodylab/config"
	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/server"
	"github.com/zintix-labs/bodylab/server/logger"
	"github.com/zintix-labs/bodylab/server/svrcfg"
	"github.com/zintix-labs/bodylab/session"
)

func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

type flags struct {
	ConfigPath string
	Addr       string
	LogMode    string
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	fl := new(flags)
	flag.StringVar(&fl.ConfigPath, "config", "", "path to YAML config (empty: built-in defaults)")
	flag.StringVar(&fl.Addr, "addr", "", "listen address, overrides config")
	flag.StringVar(&fl.LogMode, "log-mode", "", "log mode: ModeDev|ModeProd|ModeSilence, overrides config")
	flag.Parse()

	cfg, err := loadConfig(fl.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if fl.Addr != "" {
		cfg.Addr = fl.Addr
	}
	if fl.LogMode != "" {
		cfg.LogMode = fl.LogMode
	}
	if err := cfg.Valid(); err != nil {
		return nil, nil, err
	}

	mode, ok := logger.ParseMode(cfg.LogMode)
	if !ok {
		return nil, nil, errs.Fatalf("unknown log mode %q", cfg.LogMode)
	}
	log, ah := logger.NewAsync(cfg.LogBuffer, mode)

	sCfg := &svrcfg.SvrCfg{
		Log:       log,
		Addr:      cfg.Addr,
		Precision: cfg.Precision,
		Store:     session.New(cfg.SessionOptions(), log),
	}
	return sCfg, func() { ah.CloseAndReport(os.Stderr) }, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(nil, "")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(err, "resolve config path failed")
	}
	return config.Load(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}
