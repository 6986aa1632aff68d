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
	"log/slog"
	"net/http"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/session"
)

// Body 錯誤回應的 JSON 格式
type Body struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel          → 504/408
//   - 資料不足 / 退化擬合          → 422（資料本身的狀態，前端應隱藏趨勢線或預測）
//   - session 不存在              → 404
//   - 其他 errs.Warn              → 400（請求/參數問題）
//   - errs.Fatal 或未知錯誤        → 500
//
// 本函數屬於 HTTP 邊界層，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, regress.ErrInsufficientData), errors.Is(err, regress.ErrDegenerateFit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	}

	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 寫出 JSON 錯誤回應。500 類錯誤不把內部訊息外洩給呼叫端。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Code: string(errs.CodeOf(err)), Message: err.Error()}
	if e, ok := errs.AsErr(err); ok && status < 500 {
		body.Message = e.Message
	}
	if status >= 500 {
		body.Message = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 依映射後的狀態碼決定是否記錄：請求層問題記 warn，伺服器問題記 error。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	if (status == 408) || (status == 409) || (status == 429) {
		log.Warn(msg, slog.Any("err", err))
	} else if (status >= 500) && (status < 600) {
		log.Error(msg, slog.Any("err", err))
	}
}
