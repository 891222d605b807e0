package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantsim/internal/contracts"
	"github.com/wonny/quantsim/internal/indicator"
	"github.com/wonny/quantsim/internal/service"
	"github.com/wonny/quantsim/internal/strategyconfig"
	"github.com/wonny/quantsim/pkg/logger"
)

// BacktestService is the part of service.Service the handlers need
type BacktestService interface {
	ConfigHash() string
	Strategies() []service.StrategyInfo
	Run(ctx context.Context, req service.Request) (*service.Outcome, error)
	LoadSeries(ctx context.Context, req service.Request) (*contracts.Series, error)
}

// BacktestHandler serves strategy listings and backtest runs
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	svc    BacktestService
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(svc BacktestService, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{svc: svc, logger: log}
}

// ListStrategies returns every configured strategy
// GET /api/strategies
func (h *BacktestHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"config_hash": h.svc.ConfigHash(),
		"strategies":  h.svc.Strategies(),
	})
}

// GetStrategy returns one strategy by key
// GET /api/strategies/{key}
func (h *BacktestHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	for _, info := range h.svc.Strategies() {
		if info.Key == key {
			respondJSON(w, http.StatusOK, info)
			return
		}
	}
	respondError(w, http.StatusNotFound, "strategy not found: "+key)
}

// backtestRequest is the POST body; dates are YYYY-MM-DD
type backtestRequest struct {
	Strategy string `json:"strategy"`
	Symbol   string `json:"symbol"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// RunBacktest runs one strategy and returns its report
// POST /api/backtests
func (h *BacktestHandler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var body backtestRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Strategy == "" {
		respondError(w, http.StatusBadRequest, "strategy is required")
		return
	}

	req := service.Request{Strategy: body.Strategy, Symbol: body.Symbol}
	var err error
	if req.From, err = parseDate(body.From); err != nil {
		respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	if req.To, err = parseDate(body.To); err != nil {
		respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	out, err := h.svc.Run(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("strategy", body.Strategy).Error("Backtest failed")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, out)
}

// GetIndicators returns the standard indicator panel for the last bars of a symbol
// GET /api/indicators/{symbol}?last=20&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *BacktestHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.Request{Symbol: mux.Vars(r)["symbol"]}

	var err error
	if req.From, err = parseDate(q.Get("from")); err != nil {
		respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	if req.To, err = parseDate(q.Get("to")); err != nil {
		respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	last := 20
	if v := q.Get("last"); v != "" {
		if last, err = strconv.Atoi(v); err != nil || last < 1 {
			respondError(w, http.StatusBadRequest, "last must be a positive integer")
			return
		}
	}

	series, err := h.svc.LoadSeries(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("symbol", req.Symbol).Error("Load series failed")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": series.Symbol(),
		"rows":   indicator.Rows(series, indicator.Panel(series), last),
	})
}

func statusFor(err error) int {
	var cfgErr contracts.ConfigError
	var valErr strategyconfig.ValidationError
	var dqErr contracts.DataQualityError
	switch {
	case errors.Is(err, service.ErrUnknownStrategy):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInsufficientData),
		errors.As(err, &cfgErr), errors.As(err, &valErr), errors.As(err, &dqErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("must be YYYY-MM-DD")
	}
	return t, nil
}
