// Package index 提供最小的表單頁。
//
// 頁面只是呈現層：觀測點、擬合與反推全部透過 /v1 API 交給後端的回歸引擎，
// 不含任何樣式或前端框架。
package index

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var pageHTML []byte

// Page GET /
func Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(pageHTML)
}
