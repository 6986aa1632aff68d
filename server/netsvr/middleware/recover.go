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

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/server/httperr"
)

// Recover 攔下 handler 的 panic，記錄 stack 並回 500 JSON。
// http.ErrAbortHandler 照原樣往上丟，讓 net/http 中斷連線。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error("panic recovered",
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqIdNumPart(r)),
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
				)
				httperr.Errs(w, errs.NewFatal(fmt.Sprintf("panic: %v", v)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
