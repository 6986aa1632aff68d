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

package session_test

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/session"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSessionsAreIsolated(t *testing.T) {
	st := session.New(session.Options{}, nil)
	a, err := st.GetOrCreate("a")
	require.NoError(t, err)
	b, err := st.GetOrCreate("b")
	require.NoError(t, err)

	for _, p := range []regress.Point{{Fat: 10, Resistance: 100}, {Fat: 20, Resistance: 150}, {Fat: 30, Resistance: 200}} {
		_, err := a.AddPoint(p.Fat, p.Resistance)
		require.NoError(t, err)
	}
	_, err = b.AddPoint(1, 1)
	require.NoError(t, err)

	_, c, err := a.Predict(125)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, c.Fat, 1e-9)

	_, _, err = b.Predict(125)
	require.ErrorIs(t, err, regress.ErrInsufficientData)

	again, err := st.GetOrCreate("a")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 2, st.Len())
}

func TestGetMissingAndInvalidID(t *testing.T) {
	st := session.New(session.Options{}, nil)
	_, err := st.Get("nope")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = st.GetOrCreate("")
	require.ErrorIs(t, err, session.ErrInvalidID)
	_, err = st.GetOrCreate(strings.Repeat("x", 65))
	require.ErrorIs(t, err, session.ErrInvalidID)
}

func TestPointLimitAndValidation(t *testing.T) {
	st := session.New(session.Options{MaxPoints: 2}, nil)
	s, err := st.GetOrCreate("s")
	require.NoError(t, err)

	_, err = s.AddPoint(math.NaN(), 3)
	require.ErrorIs(t, err, regress.ErrInvalidPoint)

	n, err := s.AddPoint(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.AddPoint(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.AddPoint(3, 4)
	require.ErrorIs(t, err, session.ErrPointLimit)
	assert.Equal(t, 2, n)
	assert.Len(t, s.Points(), 2)

	s.Reset()
	assert.Empty(t, s.Points())
}

func TestSweepRemovesIdle(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	st := session.New(session.Options{IdleTTL: time.Minute}, nil).WithClock(clk.Now)

	_, err := st.GetOrCreate("old")
	require.NoError(t, err)
	clk.Advance(50 * time.Second)
	fresh, err := st.GetOrCreate("fresh")
	require.NoError(t, err)

	clk.Advance(20 * time.Second)
	_, err = fresh.AddPoint(1, 1) // touch
	require.NoError(t, err)

	assert.Equal(t, 1, st.Sweep(clk.Now()))
	_, err = st.Get("old")
	require.ErrorIs(t, err, session.ErrNotFound)
	_, err = st.Get("fresh")
	require.NoError(t, err)

	assert.True(t, st.Drop("fresh"))
	assert.False(t, st.Drop("fresh"))
}

func TestRunStopsOnShutdown(t *testing.T) {
	st := session.New(session.Options{IdleTTL: time.Millisecond, SweepEvery: time.Millisecond}, nil)
	done := make(chan error, 1)
	go func() { done <- st.Run() }()

	require.NoError(t, st.Shutdown(context.Background()))
	require.NoError(t, st.Shutdown(context.Background()))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestConcurrentAdds(t *testing.T) {
	st := session.New(session.Options{}, nil)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := st.GetOrCreate("shared")
			if err != nil {
				t.Error(err)
				return
			}
			for j := range 50 {
				if _, err := s.AddPoint(float64(i*50+j), float64(j)); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	s, err := st.Get("shared")
	require.NoError(t, err)
	assert.Len(t, s.Points(), 400)
}

func TestEvictedHandleRejectsWrites(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	st := session.New(session.Options{IdleTTL: time.Minute}, nil).WithClock(clk.Now)

	stale, err := st.GetOrCreate("s")
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)
	require.Equal(t, 1, st.Sweep(clk.Now()))

	// 舊 handle 已脫離 Store，寫入不能被悄悄吞掉
	_, err = stale.AddPoint(10, 100)
	require.ErrorIs(t, err, session.ErrNotFound)
	_, err = stale.Fit()
	require.ErrorIs(t, err, session.ErrNotFound)
	_, _, err = stale.Predict(1)
	require.ErrorIs(t, err, session.ErrNotFound)

	fresh, err := st.GetOrCreate("s")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	n, err := fresh.AddPoint(10, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dropped, err := st.Get("s")
	require.NoError(t, err)
	require.True(t, st.Drop("s"))
	_, err = dropped.AddPoint(20, 150)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestGetRefreshesIdleClock(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	st := session.New(session.Options{IdleTTL: time.Minute}, nil).WithClock(clk.Now)

	_, err := st.GetOrCreate("s")
	require.NoError(t, err)
	clk.Advance(50 * time.Second)
	_, err = st.Get("s")
	require.NoError(t, err)
	clk.Advance(50 * time.Second)

	assert.Equal(t, 0, st.Sweep(clk.Now()))
	_, err = st.Get("s")
	require.NoError(t, err)
}
