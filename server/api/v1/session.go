package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zintix-labs/bodylab/errs"
	"github.com/zintix-labs/bodylab/regress"
	"github.com/zintix-labs/bodylab/server/httperr"
	"github.com/zintix-labs/bodylab/server/netsvr"
	"github.com/zintix-labs/bodylab/server/svrcfg"
	"github.com/zintix-labs/bodylab/session"
)

const maxBodyBytes int64 = 1 << 10

// ============================================================
// ** SessionHandler **
// ============================================================

// SessionHandler 是表單頁（或任何呈現層）與回歸引擎之間的 HTTP 邊界。
// 每個 {sid} 對應 session.Store 中的一個獨立引擎。
type SessionHandler struct {
	store *session.Store
	prec  int
	log   *slog.Logger
}

func NewSessionHandler(sCfg *svrcfg.SvrCfg) *SessionHandler {
	return &SessionHandler{store: sCfg.Store, prec: sCfg.Precision, log: sCfg.Log}
}

// 內部結構 不影響外部 也不被外部使用
type fitResponse struct {
	SessionID string      `json:"sid"`
	Fit       regress.Fit `json:"fit"`
	Equation  string      `json:"equation"`
}

// AddPoint POST /v1/sessions/{sid}/points  body: {"fat": 10, "resistance": 100}
func (h *SessionHandler) AddPoint(w http.ResponseWriter, r *http.Request) {
	type addPointRequest struct {
		Fat        *float64 `json:"fat"`
		Resistance *float64 `json:"resistance"`
	}
	type addPointResponse struct {
		SessionID string        `json:"sid"`
		Point     regress.Point `json:"point"`
		Count     int           `json:"count"`
	}
	sid := netsvr.Param(r, "sid")
	req := new(addPointRequest)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		h.fail(w, r, errs.NewWarn("invalid json: "+err.Error()))
		return
	}
	// 空值在呈現層就該被擋下；這裡再擋一次
	if req.Fat == nil || req.Resistance == nil {
		h.fail(w, r, errs.NewWarn("fat and resistance are required"))
		return
	}
	s, err := h.store.GetOrCreate(sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := s.AddPoint(*req.Fat, *req.Resistance)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Debug("point added", slog.String("sid", sid), slog.Int("count", n))
	writeJSON(w, http.StatusCreated, addPointResponse{
		SessionID: sid,
		Point:     regress.Point{Fat: *req.Fat, Resistance: *req.Resistance},
		Count:     n,
	})
}

// ListPoints GET /v1/sessions/{sid}/points
func (h *SessionHandler) ListPoints(w http.ResponseWriter, r *http.Request) {
	type listResponse struct {
		SessionID string          `json:"sid"`
		Points    []regress.Point `json:"points"`
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listResponse{SessionID: s.ID(), Points: s.Points()})
}

// Drop DELETE /v1/sessions/{sid}
func (h *SessionHandler) Drop(w http.ResponseWriter, r *http.Request) {
	sid := netsvr.Param(r, "sid")
	if !h.store.Drop(sid) {
		h.fail(w, r, session.ErrNotFound.With("id="+sid))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Fit GET /v1/sessions/{sid}/fit
//
// 資料不足或退化時回 422，呈現層據此隱藏趨勢線。
func (h *SessionHandler) Fit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fit, err := s.Fit()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fitResponse{SessionID: s.ID(), Fit: fit, Equation: fit.Equation(h.prec)})
}

// Predict GET /v1/sessions/{sid}/predict?resistance=125
func (h *SessionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	type predictResponse struct {
		fitResponse
		Resistance  float64             `json:"resistance"`
		Composition regress.Composition `json:"composition"`
		FatText     string              `json:"fat_text"`
		ProteinText string              `json:"protein_text"`
	}
	raw := r.URL.Query().Get("resistance")
	if raw == "" {
		h.fail(w, r, errs.NewWarn("resistance is required"))
		return
	}
	res, err := strconv.ParseFloat(raw, 64)
	if err != nil || regress.ValidatePoint(0, res) != nil {
		h.fail(w, r, errs.NewWarn("resistance must be a finite number"))
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fit, c, err := s.Predict(res)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		fitResponse: fitResponse{SessionID: s.ID(), Fit: fit, Equation: fit.Equation(h.prec)},
		Resistance:  res,
		Composition: c,
		FatText:     c.FatText(),
		ProteinText: c.ProteinText(),
	})
}

// Series GET /v1/sessions/{sid}/series
//
// 無法擬合時只回傳 measured，trendline 省略。
func (h *SessionHandler) Series(w http.ResponseWriter, r *http.Request) {
	type seriesResponse struct {
		SessionID string `json:"sid"`
		regress.Series
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{SessionID: s.ID(), Series: s.Series()})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(netsvr.Param(r, "sid"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return s, true
}

// fail 寫出錯誤回應並依狀態碼記錄
func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httperr.Log(h.log, r.Method+" "+r.URL.Path, err)
	httperr.Errs(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
