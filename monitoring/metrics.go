// Package monitoring 提供预测服务的指标收集
package monitoring

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// 指标名称
const (
	PredictionsTotal         = "predictions_total"
	PredictionsEdible        = "predictions_edible"
	PredictionsPoisonous     = "predictions_poisonous"
	PredictionsLowConfidence = "predictions_low_confidence"
	PredictionsRejected      = "predictions_rejected"
	CacheHits                = "cache_hits"
	ArtifactChanges          = "artifact_changes"
)

var counterHelp = map[string]string{
	PredictionsTotal:         "Predictions served",
	PredictionsEdible:        "Predictions labeled edible",
	PredictionsPoisonous:     "Predictions labeled poisonous",
	PredictionsLowConfidence: "Edible predictions below the confidence threshold",
	PredictionsRejected:      "Requests rejected for unknown categories",
	CacheHits:                "Predictions served from the cache",
	ArtifactChanges:          "Model bundle changes seen on disk",
}

// maxSamples 置信度历史上限（保留最近1000个）
const maxSamples = 1000

// Summary 置信度摘要
type Summary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Snapshot 指标快照
type Snapshot struct {
	Counters   map[string]float64 `json:"counters"`
	Confidence Summary            `json:"confidence"`
	Goroutines int                `json:"goroutines"`
	Uptime     string             `json:"uptime"`
	Timestamp  time.Time          `json:"timestamp"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	counters    map[string]float64
	confidences []float64
	mu          sync.RWMutex

	subscribers map[chan Snapshot]struct{}
	subMu       sync.Mutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		counters:    make(map[string]float64, len(counterHelp)),
		subscribers: make(map[chan Snapshot]struct{}),
		startTime:   time.Now(),
	}
	for name := range counterHelp {
		mc.counters[name] = 0
	}
	return mc
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64) {
	mc.mu.Lock()
	mc.counters[name] += value
	mc.mu.Unlock()
	mc.publish()
}

// RecordPrediction 记录一次成功预测
func (mc *MetricsCollector) RecordPrediction(class string, confidence float64, lowConfidence, cached bool) {
	mc.mu.Lock()
	mc.counters[PredictionsTotal]++
	switch class {
	case "edible":
		mc.counters[PredictionsEdible]++
	case "poisonous":
		mc.counters[PredictionsPoisonous]++
	}
	if lowConfidence {
		mc.counters[PredictionsLowConfidence]++
	}
	if cached {
		mc.counters[CacheHits]++
	}
	mc.confidences = append(mc.confidences, confidence)
	if len(mc.confidences) > maxSamples {
		mc.confidences = mc.confidences[len(mc.confidences)-maxSamples:]
	}
	mc.mu.Unlock()
	mc.publish()
}

// RecordRejected 记录被拒绝的请求
func (mc *MetricsCollector) RecordRejected() {
	mc.IncrCounter(PredictionsRejected, 1)
}

// RecordArtifactChange 记录模型文件变更
func (mc *MetricsCollector) RecordArtifactChange() {
	mc.IncrCounter(ArtifactChanges, 1)
}

// Counter 获取计数器值
func (mc *MetricsCollector) Counter(name string) float64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}

// Snapshot 获取指标快照
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	counters := make(map[string]float64, len(mc.counters))
	for k, v := range mc.counters {
		counters[k] = v
	}
	return Snapshot{
		Counters:   counters,
		Confidence: summarize(mc.confidences),
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(mc.startTime).Round(time.Second).String(),
		Timestamp:  time.Now(),
	}
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))
	return s
}

// Subscribe 订阅快照推送；返回的函数用于取消订阅
func (mc *MetricsCollector) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	mc.subMu.Lock()
	mc.subscribers[ch] = struct{}{}
	mc.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			mc.subMu.Lock()
			delete(mc.subscribers, ch)
			mc.subMu.Unlock()
			close(ch)
		})
	}
}

// publish 向订阅者推送快照，慢订阅者直接丢弃本次推送
func (mc *MetricsCollector) publish() {
	mc.subMu.Lock()
	defer mc.subMu.Unlock()
	if len(mc.subscribers) == 0 {
		return
	}
	snap := mc.Snapshot()
	for ch := range mc.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	snap := mc.Snapshot()
	names := make([]string, 0, len(snap.Counters))
	for name := range snap.Counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		help := counterHelp[name]
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP fauxpas_%s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE fauxpas_%s counter\n", name)
		fmt.Fprintf(&b, "fauxpas_%s %g\n", name, snap.Counters[name])
	}
	fmt.Fprintf(&b, "# HELP fauxpas_confidence_mean Mean confidence of recent predictions\n")
	fmt.Fprintf(&b, "# TYPE fauxpas_confidence_mean gauge\n")
	fmt.Fprintf(&b, "fauxpas_confidence_mean %g\n", snap.Confidence.Mean)
	return b.String()
}
