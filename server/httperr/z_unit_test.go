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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/session"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"deadline", errs.Wrap(context.DeadlineExceeded, "slow"), http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout},
		{"insufficient", regress.ErrInsufficientData.With("points=1"), http.StatusUnprocessableEntity},
		{"degenerate", errs.Wrap(regress.ErrDegenerateFit, "fit"), http.StatusUnprocessableEntity},
		{"not found", session.ErrNotFound.With("id=x"), http.StatusNotFound},
		{"warn", errs.NewWarn("bad"), http.StatusBadRequest},
		{"fatal", errs.NewFatal("boom"), http.StatusInternalServerError},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestErrsWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, regress.ErrDegenerateFit.With("all fat equal"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status got %d", rec.Code)
	}
	var b Body
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Code != "degenerate_fit" || b.Message == "" {
		t.Fatalf("unexpected body: %+v", b)
	}

	rec = httptest.NewRecorder()
	Errs(rec, errs.NewFatal("secret path /etc/x"))
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Message != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("fatal message should be hidden, got %q", b.Message)
	}
}
