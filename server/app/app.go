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

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 關閉所有元件的總時限
const DefaultShutdownTimeout = 5 * time.Second

// App 並行啟動所有 Component，收到 SIGINT/SIGTERM 或任一 Component 結束時，
// 依註冊順序逐一 Shutdown。
type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
}

func New() *App {
	return &App{log: slog.New(slog.DiscardHandler), timeout: DefaultShutdownTimeout}
}

// NewWith 建立並依序註冊 comps
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// WithLogger 設定生命週期日誌；nil 不變更
func (a *App) WithLogger(log *slog.Logger) *App {
	if log != nil {
		a.log = log
	}
	return a
}

// WithShutdownTimeout 設定關閉時限；<= 0 不變更
func (a *App) WithShutdownTimeout(d time.Duration) *App {
	if d > 0 {
		a.timeout = d
	}
	return a
}

// Run 阻塞直到收到終止信號（回傳 nil）或第一個 Component 的 Run 返回（回傳其結果）。
// 兩種情況都會先做 gracefulShutdown。
func (a *App) Run() error {
	type exit struct {
		name string
		err  error
	}
	exitCh := make(chan exit, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			exitCh <- exit{name: nameOf(c), err: c.Run()}
		}(c)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.log.Info("signal received, shutting down", slog.String("signal", sig.String()))
		a.gracefulShutdown()
		return nil
	case ex := <-exitCh:
		if ex.err != nil {
			a.log.Error("component stopped", slog.String("component", ex.name), slog.Any("err", ex.err))
		} else {
			a.log.Info("component stopped", slog.String("component", ex.name))
		}
		a.gracefulShutdown()
		return ex.err
	}
}

// gracefulShutdown 在共用的時限內逐一呼叫 Shutdown，錯誤只記錄不中斷
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Warn("shutdown failed", slog.String("component", nameOf(c)), slog.Any("err", err))
		}
	}
}

func nameOf(c Component) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
