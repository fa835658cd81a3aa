// Package pipeline 推理管道：将表单选择经编码器和分类器转换为带置信度的可食性预测
package pipeline

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"fauxpas/logger"
	"fauxpas/ml"
	"fauxpas/vocab"
)

// LowConfidenceThreshold 低置信度阈值，仅对可食预测生效
const LowConfidenceThreshold = 0.80

const lowConfidenceWarning = " ⚠️ Low confidence—please verify!"

// FeatureImportance 编码列及其重要性分数
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// Prediction 预测结果
type Prediction struct {
	Label         string              `json:"label"`
	Class         vocab.Class         `json:"class"`
	Confidence    float64             `json:"confidence"`
	LowConfidence bool                `json:"low_confidence"`
	Probabilities map[string]float64  `json:"probabilities"`
	Importances   []FeatureImportance `json:"importances"`
	Selection     vocab.Selection     `json:"selection"`
	Encoded       vocab.EncodedRow    `json:"encoded"`
	Cached        bool                `json:"-"`
}

func (p *Prediction) clone() *Prediction {
	out := *p
	out.Probabilities = make(map[string]float64, len(p.Probabilities))
	for k, v := range p.Probabilities {
		out.Probabilities[k] = v
	}
	out.Importances = append([]FeatureImportance(nil), p.Importances...)
	out.Encoded = make(vocab.EncodedRow, len(p.Encoded))
	for k, v := range p.Encoded {
		out.Encoded[k] = v
	}
	return &out
}

// Pipeline 推理管道，模型只读，Predict可并发调用
type Pipeline struct {
	encoder     ml.Encoder
	classifier  ml.Classifier
	classes     []vocab.Class
	importances []FeatureImportance
	cache       *lru.Cache[string, *Prediction]
}

// Option 管道选项
type Option func(*Pipeline) error

// WithCache 按编码行缓存预测结果，size为0时不缓存
func WithCache(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			p.cache = nil
			return nil
		}
		cache, err := lru.New[string, *Prediction](size)
		if err != nil {
			return errors.Wrap(err, "create prediction cache")
		}
		p.cache = cache
		return nil
	}
}

// FromBundle 基于已加载的模型构建管道
func FromBundle(b *ml.Bundle, opts ...Option) (*Pipeline, error) {
	if b == nil {
		return nil, errors.New("nil bundle")
	}
	return New(b.Encoder, b.Classifier, b.Classes, opts...)
}

// New 创建管道并检查词表、编码器列、类别和重要性是否一致
func New(encoder ml.Encoder, classifier ml.Classifier, classes []vocab.Class, opts ...Option) (*Pipeline, error) {
	if encoder == nil || classifier == nil {
		return nil, errors.New("encoder and classifier are required")
	}
	if len(classes) != classifier.NumClasses() {
		return nil, errors.Newf("%d class tags for a %d-class classifier", len(classes), classifier.NumClasses())
	}
	edible := 0
	for _, c := range classes {
		if c == vocab.Edible {
			edible++
		}
	}
	if edible != 1 {
		return nil, errors.Newf("classifier must have exactly one edible class, has %d", edible)
	}

	columns := encoder.FeatureNames()
	if err := checkSchema(encoder, columns); err != nil {
		return nil, err
	}

	scores := classifier.FeatureImportances()
	if len(scores) != len(columns) {
		return nil, &ml.SchemaMismatchError{
			Column: "*",
			Reason: fmt.Sprintf("%d importances for %d encoder columns", len(scores), len(columns)),
		}
	}
	importances := make([]FeatureImportance, len(columns))
	for i, name := range columns {
		importances[i] = FeatureImportance{Feature: name, Score: scores[i]}
	}

	p := &Pipeline{
		encoder:     encoder,
		classifier:  classifier,
		classes:     append([]vocab.Class(nil), classes...),
		importances: importances,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type categorized interface {
	Categories(name string) ([]string, bool)
}

func checkSchema(encoder ml.Encoder, columns []string) error {
	want := make(map[string]bool, len(columns))
	for _, name := range columns {
		want[name] = true
	}
	for _, name := range vocab.Names() {
		if !want[name] {
			return &ml.SchemaMismatchError{Column: name, Reason: "vocabulary feature unknown to encoder"}
		}
		delete(want, name)
	}
	for _, name := range columns {
		if want[name] {
			return &ml.SchemaMismatchError{Column: name, Reason: "encoder column has no vocabulary"}
		}
	}

	enc, ok := encoder.(categorized)
	if !ok {
		return nil
	}
	for _, name := range vocab.Names() {
		fitted, _ := enc.Categories(name)
		known := make(map[string]bool, len(fitted))
		for _, code := range fitted {
			known[code] = true
		}
		for _, code := range vocab.Codes(name) {
			if !known[code] {
				return &ml.SchemaMismatchError{
					Column: name,
					Reason: fmt.Sprintf("vocabulary code %q not in fitted categories", code),
				}
			}
		}
	}
	return nil
}

// Predict 编码、分类并生成标签；非法选择在推理前返回*vocab.UnknownCategoryError
func (p *Pipeline) Predict(sel vocab.Selection) (*Prediction, error) {
	row, err := vocab.Encode(sel)
	if err != nil {
		return nil, err
	}

	key := row.Key()
	if p.cache != nil {
		if hit, ok := p.cache.Get(key); ok {
			out := hit.clone()
			out.Selection = sel
			out.Cached = true
			return out, nil
		}
	}

	features, err := p.encoder.Transform(row)
	if err != nil {
		var mismatch *ml.SchemaMismatchError
		if errors.As(err, &mismatch) {
			logger.Named("pipeline").Errorw("encoder schema mismatch",
				"column", mismatch.Column, "reason", mismatch.Reason)
		}
		return nil, errors.Wrap(err, "encode selection")
	}

	idx, proba, err := p.classifier.Predict(features)
	if err != nil {
		return nil, errors.Wrap(err, "classify")
	}
	if idx < 0 || idx >= len(p.classes) || len(proba) != len(p.classes) {
		return nil, errors.AssertionFailedf("classifier returned class %d with %d probabilities", idx, len(proba))
	}

	class := p.classes[idx]
	confidence := maxOf(proba)
	probabilities := make(map[string]float64, len(proba))
	for i, v := range proba {
		probabilities[p.classes[i].String()] = v
	}

	pred := &Prediction{
		Label:         FormatLabel(class, confidence),
		Class:         class,
		Confidence:    confidence,
		LowConfidence: IsLowConfidence(class, confidence),
		Probabilities: probabilities,
		Importances:   p.Importances(),
		Selection:     sel,
		Encoded:       row,
	}
	if p.cache != nil {
		p.cache.Add(key, pred.clone())
	}
	return pred, nil
}

// Importances 按编码器列顺序返回特征重要性
func (p *Pipeline) Importances() []FeatureImportance {
	return append([]FeatureImportance(nil), p.importances...)
}

// Classes 按概率顺序返回类别
func (p *Pipeline) Classes() []vocab.Class {
	return append([]vocab.Class(nil), p.classes...)
}

// IsLowConfidence 是否需要低置信度警告
func IsLowConfidence(class vocab.Class, confidence float64) bool {
	return class == vocab.Edible && confidence < LowConfidenceThreshold
}

// FormatLabel 生成面向用户的预测标签
func FormatLabel(class vocab.Class, confidence float64) string {
	base := "Poisonous ☠️"
	if class == vocab.Edible {
		base = "Edible 🍽️"
	}
	label := fmt.Sprintf("%s (Confidence: %.2f)", base, confidence)
	if IsLowConfidence(class, confidence) {
		label += lowConfidenceWarning
	}
	return label
}

func maxOf(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}
