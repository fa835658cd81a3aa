package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"fauxpas/chart"
	"fauxpas/db"
	"fauxpas/logger"
	"fauxpas/ml"
	"fauxpas/monitoring"
	"fauxpas/pipeline"
	"fauxpas/vocab"
)

// Predictor 推理接口
type Predictor interface {
	Predict(sel vocab.Selection) (*pipeline.Prediction, error)
	Importances() []pipeline.FeatureImportance
}

// Recorder 预测记录接口
type Recorder interface {
	SavePrediction(pred *pipeline.Prediction) error
}

var (
	depsMu    sync.RWMutex
	predictor Predictor
	recorder  Recorder
	metrics   *monitoring.MetricsCollector
)

// 历史查询，测试中可替换
var (
	historyEnabled   = db.Enabled
	queryPredictions = db.QueryPredictions
)

// SetPredictor 设置推理管道
func SetPredictor(p Predictor) {
	depsMu.Lock()
	defer depsMu.Unlock()
	predictor = p
}

// SetRecorder 设置预测记录器
func SetRecorder(r Recorder) {
	depsMu.Lock()
	defer depsMu.Unlock()
	recorder = r
}

// SetMetrics 设置指标收集器
func SetMetrics(m *monitoring.MetricsCollector) {
	depsMu.Lock()
	defer depsMu.Unlock()
	metrics = m
}

func currentPredictor() Predictor {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return predictor
}

func currentMetrics() *monitoring.MetricsCollector {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return metrics
}

// errNoModel 未设置推理管道
var errNoModel = errors.New("model not loaded")

// RegisterHandlers 注册API路由
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/vocabulary", handleVocabulary)
	mux.HandleFunc("GET /api/importances", handleImportances)
	mux.HandleFunc("GET /api/charts/importance.svg", handleImportanceChart)
	mux.HandleFunc("GET /api/charts/confidence.svg", handleConfidenceChart)
	mux.HandleFunc("GET /api/history", handleHistory)
	mux.HandleFunc("GET /api/metrics", handleMetrics)
	mux.HandleFunc("GET /metrics", handlePrometheus)
}

// requestLogger 返回带请求ID的日志器
func requestLogger(ctx context.Context) *zap.SugaredLogger {
	log := logger.Named("http")
	if id := GetRequestID(ctx); id != "" {
		log = log.With(logger.FieldRequestID, id)
	}
	return log
}

// predict 执行一次推理并记录指标与历史，err非空时status为应返回的HTTP状态码
func predict(ctx context.Context, sel vocab.Selection) (*pipeline.Prediction, int, error) {
	p := currentPredictor()
	if p == nil {
		return nil, http.StatusServiceUnavailable, errNoModel
	}

	pred, err := p.Predict(sel)
	if err != nil {
		var unknown *vocab.UnknownCategoryError
		if errors.As(err, &unknown) {
			if m := currentMetrics(); m != nil {
				m.RecordRejected()
			}
			return nil, http.StatusBadRequest, err
		}
		requestLogger(ctx).Errorw("prediction failed", logger.FieldError, err)
		return nil, http.StatusInternalServerError, err
	}

	if m := currentMetrics(); m != nil {
		m.RecordPrediction(pred.Class.String(), pred.Confidence, pred.LowConfidence, pred.Cached)
	}
	log := requestLogger(ctx)
	if start := GetStartTime(ctx); !start.IsZero() {
		log = log.With(logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
	log.Debugw("prediction served", logger.FieldClass, pred.Class.String(), logger.FieldConfidence, pred.Confidence)

	depsMu.RLock()
	rec := recorder
	depsMu.RUnlock()
	if rec != nil {
		if err := rec.SavePrediction(pred); err != nil {
			log.Warnw("failed to record prediction", logger.FieldError, err)
		}
	}
	return pred, http.StatusOK, nil
}

// errorBody 错误响应，不暴露内部细节
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func errorPayload(status int, err error) errorBody {
	var unknown *vocab.UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		return errorBody{Error: unknown.Error(), Field: unknown.Field, Value: unknown.Value}
	case errors.Is(err, errNoModel):
		return errorBody{Error: errNoModel.Error()}
	}
	var mismatch *ml.SchemaMismatchError
	if errors.As(err, &mismatch) {
		return errorBody{Error: "model schema mismatch"}
	}
	if status >= http.StatusInternalServerError {
		return errorBody{Error: "internal server error"}
	}
	return errorBody{Error: err.Error()}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": currentPredictor() != nil,
	})
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	var sel vocab.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pred, status, err := predict(r.Context(), sel)
	if err != nil {
		respondJSON(w, status, errorPayload(status, err))
		return
	}
	respondJSON(w, http.StatusOK, pred)
}

func handleVocabulary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"features": vocab.Features(),
	})
}

func handleImportances(w http.ResponseWriter, r *http.Request) {
	p := currentPredictor()
	if p == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorPayload(http.StatusServiceUnavailable, errNoModel))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"importances": p.Importances(),
	})
}

func importanceBars(importances []pipeline.FeatureImportance) []chart.Bar {
	bars := make([]chart.Bar, len(importances))
	for i, fi := range importances {
		bars[i] = chart.Bar{Label: vocab.DisplayName(fi.Feature), Value: fi.Score}
	}
	return bars
}

func handleImportanceChart(w http.ResponseWriter, r *http.Request) {
	p := currentPredictor()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, errNoModel.Error())
		return
	}
	respondSVG(w, chart.FeatureImportance(importanceBars(p.Importances())))
}

func handleConfidenceChart(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil || value < 0 || value > 1 {
		writeError(w, http.StatusBadRequest, "value must be a number in [0, 1]")
		return
	}
	respondSVG(w, chart.ConfidenceGauge(value))
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	if !historyEnabled() {
		writeError(w, http.StatusServiceUnavailable, "prediction history is disabled")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, 500)
	}

	records, err := queryPredictions(limit)
	if err != nil {
		requestLogger(r.Context()).Errorw("history query failed", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := currentMetrics()
	if m == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not enabled")
		return
	}
	respondJSON(w, http.StatusOK, m.Snapshot())
}

func handlePrometheus(w http.ResponseWriter, r *http.Request) {
	m := currentMetrics()
	if m == nil {
		http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(m.ExportPrometheus()))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Named("http").Warnw("failed to encode JSON", logger.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

func respondSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(svg))
}
