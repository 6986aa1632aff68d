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

// Package session 讓回歸引擎可以安全地嵌入多使用者服務。
//
// 規則：一個 session 一個 regress.Engine，不跨 session 共享。
// 每個 Session 自帶一把鎖，觀測點序列與由它推得的 Fit 被視為同一個單位。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
)

var (
	// ErrNotFound : session 不存在（從未建立，或已被清除）
	ErrNotFound = errs.NewCode(errs.Warn, "session_not_found", "session not found")
	// ErrPointLimit : 觀測點數已達上限
	ErrPointLimit = errs.NewCode(errs.Warn, "point_limit", "point limit reached")
	// ErrInvalidID : session id 不合法
	ErrInvalidID = errs.NewCode(errs.Warn, "invalid_session_id", "session id must be 1 to 64 characters")
)

const maxIDLen int = 64

// Options Store 的外部策略
type Options struct {
	MaxPoints  int           // 每個 session 最多幾筆觀測，0 代表不限
	IdleTTL    time.Duration // 閒置多久後清除，0 代表永不清除
	SweepEvery time.Duration // 背景清除的週期，0 代表不跑背景清除
}

// ============================================================
// ** Session **
// ============================================================

// Session 包住一個 Engine 與其鎖
type Session struct {
	mu      sync.Mutex
	id      string
	eng     *regress.Engine
	limit   int
	touched time.Time
	now     func() time.Time
	// evicted 由 Sweep 設定；之後的寫入與擬合一律回 ErrNotFound
	evicted bool
}

func (s *Session) ID() string { return s.id }

// AddPoint 檢查觀測值與點數上限後追加
func (s *Session) AddPoint(fat, resistance float64) (int, error) {
	if err := regress.ValidatePoint(fat, resistance); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return 0, s.errEvicted()
	}
	s.touch()
	if s.limit > 0 && s.eng.Len() >= s.limit {
		return s.eng.Len(), ErrPointLimit.With(fmt.Sprintf("max_points=%d", s.limit))
	}
	s.eng.AddPoint(fat, resistance)
	return s.eng.Len(), nil
}

// Points 觀測點副本
func (s *Session) Points() []regress.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.eng.Points()
}

// Fit 以目前觀測點重新擬合
func (s *Session) Fit() (regress.Fit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return regress.Fit{}, s.errEvicted()
	}
	s.touch()
	return s.eng.Fit()
}

// Predict 擬合後反推組成；擬合失敗的錯誤原樣回傳
func (s *Session) Predict(resistance float64) (regress.Fit, regress.Composition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return regress.Fit{}, regress.Composition{}, s.errEvicted()
	}
	s.touch()
	fit, err := s.eng.Fit()
	if err != nil {
		return regress.Fit{}, regress.Composition{}, err
	}
	c, err := regress.PredictComposition(fit, resistance)
	if err != nil {
		return fit, regress.Composition{}, err
	}
	return fit, c, nil
}

// Series 圖表資料
func (s *Session) Series() regress.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.eng.Series()
}

// Reset 清空觀測點
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.eng.Reset()
}

// 呼叫前需持有 s.mu
func (s *Session) touch() {
	s.touched = s.now()
}

func (s *Session) errEvicted() error {
	return ErrNotFound.With("id=" + s.id + " evicted")
}

func (s *Session) touchLocked() {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
}

// evictIfIdle 在 s.mu 下重新判斷閒置，成立時標記 evicted
func (s *Session) evictIfIdle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.touched) <= ttl {
		return false
	}
	s.evicted = true
	return true
}

// ============================================================
// ** Store **
// ============================================================

// Store 以 id 管理所有 Session。
//
// Store 同時實作 app.Component：Run 會依 SweepEvery 週期清除閒置 session，
// 直到 Shutdown 被呼叫為止。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opt      Options
	log      *slog.Logger
	now      func() time.Time

	quit chan struct{}
	once sync.Once
}

// New 建立 Store；log 為 nil 時不輸出日誌
func New(opt Options, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	opt.MaxPoints = max(0, opt.MaxPoints)
	return &Store{
		sessions: make(map[string]*Session),
		opt:      opt,
		log:      log,
		now:      time.Now,
		quit:     make(chan struct{}),
	}
}

// WithClock 替換時間來源（測試用）
func (st *Store) WithClock(now func() time.Time) *Store {
	st.now = now
	return st
}

func (st *Store) Options() Options { return st.opt }

// ValidID 檢查 session id
func ValidID(id string) error {
	if id == "" || len(id) > maxIDLen {
		return ErrInvalidID.With(fmt.Sprintf("len=%d", len(id)))
	}
	return nil
}

// Get 取得既有 session
func (st *Store) Get(id string) (*Session, error) {
	if err := ValidID(id); err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound.With("id=" + id)
	}
	// 在 st.mu 下 touch：Sweep 需要寫鎖，取得的 session 不會剛好被判定閒置
	s.touchLocked()
	return s, nil
}

// GetOrCreate 取得或建立 session
func (st *Store) GetOrCreate(id string) (*Session, error) {
	if err := ValidID(id); err != nil {
		return nil, err
	}
	st.mu.RLock()
	s, ok := st.sessions[id]
	if ok {
		s.touchLocked()
	}
	st.mu.RUnlock()
	if ok {
		return s, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok = st.sessions[id]; ok {
		s.touchLocked()
		return s, nil
	}
	s = &Session{
		id:      id,
		eng:     regress.New(),
		limit:   st.opt.MaxPoints,
		touched: st.now(),
		now:     st.now,
	}
	st.sessions[id] = s
	st.log.Debug("session created", slog.String("sid", id))
	return s, nil
}

// Drop 移除 session，回傳是否存在
func (st *Store) Drop(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	s.mu.Lock()
	s.evicted = true
	s.mu.Unlock()
	delete(st.sessions, id)
	return true
}

// Len 目前 session 數
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep 清除在 now 之前閒置超過 IdleTTL 的 session，回傳清除數量
func (st *Store) Sweep(now time.Time) int {
	if st.opt.IdleTTL <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.evictIfIdle(now, st.opt.IdleTTL) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.log.Info("sessions swept", slog.Int("removed", n), slog.Int("remain", len(st.sessions)))
	}
	return n
}

// Run 背景清除迴圈（app.Component）。SweepEvery 或 IdleTTL 未設定時只等待 Shutdown。
func (st *Store) Run() error {
	if st.opt.SweepEvery <= 0 || st.opt.IdleTTL <= 0 {
		<-st.quit
		return nil
	}
	tk := time.NewTicker(st.opt.SweepEvery)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			st.Sweep(st.now())
		case <-st.quit:
			return nil
		}
	}
}

// Name 給生命週期日誌使用
func (st *Store) Name() string { return "session-sweeper" }

// Shutdown 停止背景清除（app.Component）
func (st *Store) Shutdown(ctx context.Context) error {
	st.once.Do(func() { close(st.quit) })
	return ctx.Err()
}
