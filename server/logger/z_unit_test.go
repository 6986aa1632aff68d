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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestParseMode(t *testing.T) {
	cases := map[string]LogMode{
		"ModeDev":     ModeDev,
		"prod":        ModeProd,
		"ModeProd":    ModeProd,
		" silence ":   ModeSilence,
		"MODESILENCE": ModeSilence,
		"":            ModeDev,
	}
	for in, want := range cases {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %v,%v want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseMode("verbose"); ok {
		t.Fatalf("unknown mode should not be ok")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	out := new(lockedBuf)
	ah := NewAsyncHandler(slog.NewTextHandler(out, nil), 16)
	log := slog.New(ah).With(slog.String("sid", "s1"))
	for range 5 {
		log.Info("fit done")
	}
	ah.Close()

	got := out.String()
	if n := strings.Count(got, "fit done"); n != 5 {
		t.Fatalf("expected 5 records after drain, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "sid=s1") {
		t.Fatalf("attrs lost: %s", got)
	}

	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("records after Close should be dropped, dropped=%d", ah.Dropped())
	}
}

func TestCloseAndReportDropped(t *testing.T) {
	ah := NewAsyncHandler(slog.NewTextHandler(new(lockedBuf), nil), 4)
	log := slog.New(ah)
	ah.Close()
	log.Info("late 1")
	log.Info("late 2")

	var report bytes.Buffer
	if n := ah.CloseAndReport(&report); n != 2 {
		t.Fatalf("dropped got %d want 2", n)
	}
	if !strings.Contains(report.String(), "2 log records dropped") {
		t.Fatalf("unexpected report: %q", report.String())
	}

	quiet := NewAsyncHandler(slog.NewTextHandler(new(lockedBuf), nil), 4)
	report.Reset()
	if n := quiet.CloseAndReport(&report); n != 0 || report.Len() != 0 {
		t.Fatalf("nothing dropped should print nothing, got %d %q", n, report.String())
	}
}
