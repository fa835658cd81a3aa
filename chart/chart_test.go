package chart

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertWellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			require.Equal(t, "EOF", err.Error())
			return
		}
	}
}

func TestConfidenceGaugeColor(t *testing.T) {
	high := ConfidenceGauge(0.93)
	assertWellFormed(t, high)
	assert.Contains(t, high, `class="bar"`)
	assert.Contains(t, high, `fill="green"`)
	assert.Contains(t, high, "Confidence Gauge")
	assert.Contains(t, high, "Confidence Score")

	low := ConfidenceGauge(0.8)
	assert.Contains(t, low, `fill="orange"`)
	assert.NotContains(t, low, `fill="green"`)
}

func TestConfidenceGaugeWidthScales(t *testing.T) {
	assert.Contains(t, ConfidenceGauge(1), `width="300.0"`)
	assert.Contains(t, ConfidenceGauge(0.5), `width="150.0"`)
	assert.Contains(t, ConfidenceGauge(-3), `width="0.0"`)
}

func TestFeatureImportance(t *testing.T) {
	svg := FeatureImportance([]Bar{
		{Label: "odor", Value: 0.45},
		{Label: "gill-size", Value: 0.2},
		{Label: "a<b", Value: 0.05},
	})
	assertWellFormed(t, svg)
	assert.Equal(t, 3, strings.Count(svg, `class="bar"`))
	assert.Contains(t, svg, "Feature Importance")
	assert.Contains(t, svg, "a&lt;b")
	assert.Contains(t, svg, `fill="skyblue"`)
	assert.Less(t, strings.Index(svg, ">odor<"), strings.Index(svg, ">gill-size<"))
}

func TestFeatureImportanceEmpty(t *testing.T) {
	svg := FeatureImportance(nil)
	assertWellFormed(t, svg)
	assert.NotContains(t, svg, `class="bar"`)
}

func TestAxisMax(t *testing.T) {
	assert.Equal(t, 0.5, axisMax([]Bar{{Value: 0.45}}))
	assert.Equal(t, 1.0, axisMax(nil))
	assert.Equal(t, 3.0, axisMax([]Bar{{Value: 2.1}}))
}
