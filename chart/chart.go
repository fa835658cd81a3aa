// Package chart 将置信度仪表和特征重要性图渲染为独立的SVG文档
package chart

import (
	"fmt"
	"html"
	"math"
	"strings"
)

const (
	colorConfident = "green"
	colorUnsure    = "orange"
	colorBar       = "skyblue"
	fontFamily     = "DejaVu Sans, Arial, sans-serif"
)

// GaugeThreshold 置信度高于该值时仪表显示绿色
const GaugeThreshold = 0.8

// Bar 水平条形图中的一项
type Bar struct {
	Label string
	Value float64
}

type canvas struct {
	b      strings.Builder
	width  float64
	height float64
}

func newCanvas(width, height float64) *canvas {
	c := &canvas{width: width, height: height}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="%s">`,
		width, height, width, height, fontFamily)
	fmt.Fprintf(&c.b, `<rect width="%g" height="%g" fill="white"/>`, width, height)
	return c
}

func (c *canvas) text(x, y, size float64, anchor, s string) {
	fmt.Fprintf(&c.b, `<text x="%.1f" y="%.1f" font-size="%g" text-anchor="%s">%s</text>`,
		x, y, size, anchor, html.EscapeString(s))
}

func (c *canvas) rect(x, y, w, h float64, fill, class string) {
	fmt.Fprintf(&c.b, `<rect class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
		class, x, y, w, h, fill)
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string, dashed bool) {
	dash := ""
	if dashed {
		dash = ` stroke-dasharray="4 3" stroke-opacity="0.5"`
	}
	fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"%s/>`,
		x1, y1, x2, y2, stroke, dash)
}

func (c *canvas) String() string {
	return c.b.String() + "</svg>"
}

// ConfidenceGauge 在固定的0..1坐标轴上绘制单个条形
func ConfidenceGauge(confidence float64) string {
	confidence = clamp(confidence, 0, 1)
	const (
		width, height    = 400.0, 150.0
		left, right      = 80.0, 20.0
		top, bottom      = 30.0, 45.0
		titleSize, small = 10.0, 8.0
	)
	c := newCanvas(width, height)
	plotW := width - left - right
	plotH := height - top - bottom

	c.text(width/2, 18, titleSize, "middle", "Confidence Gauge")
	for i := 0; i <= 5; i++ {
		v := float64(i) / 5
		x := left + v*plotW
		c.line(x, top, x, top+plotH, "gray", true)
		c.text(x, top+plotH+12, small, "middle", fmt.Sprintf("%.1f", v))
	}

	fill := colorUnsure
	if confidence > GaugeThreshold {
		fill = colorConfident
	}
	barH := plotH * 0.6
	c.rect(left, top+(plotH-barH)/2, confidence*plotW, barH, fill, "bar")
	c.text(left-6, top+plotH/2+3, small, "end", "Confidence")
	c.line(left, top, left, top+plotH, "black", false)
	c.line(left, top+plotH, left+plotW, top+plotH, "black", false)
	c.text(left+plotW/2, height-8, small, "middle", "Confidence Score")
	return c.String()
}

// FeatureImportance 每项绘制一个水平条形，第一项在最底部，按最大值缩放
func FeatureImportance(bars []Bar) string {
	const (
		width, height = 800.0, 400.0
		left, right   = 120.0, 30.0
		top, bottom   = 40.0, 40.0
	)
	c := newCanvas(width, height)
	plotW := width - left - right
	plotH := height - top - bottom
	c.text(width/2, 24, 12, "middle", "Feature Importance")

	scale := axisMax(bars)
	for i := 0; i <= 4; i++ {
		v := scale * float64(i) / 4
		x := left + float64(i)/4*plotW
		c.line(x, top+plotH, x, top+plotH+4, "black", false)
		c.text(x, top+plotH+16, 9, "middle", fmt.Sprintf("%.2f", v))
	}

	if n := len(bars); n > 0 {
		slot := plotH / float64(n)
		for i, bar := range bars {
			y := top + plotH - float64(i+1)*slot
			w := clamp(bar.Value, 0, scale) / scale * plotW
			c.rect(left, y+slot*0.1, w, slot*0.8, colorBar, "bar")
			c.text(left-6, y+slot/2+4, 10, "end", bar.Label)
		}
	}
	c.line(left, top, left, top+plotH, "black", false)
	c.line(left, top+plotH, left+plotW, top+plotH, "black", false)
	return c.String()
}

func axisMax(bars []Bar) float64 {
	m := 0.0
	for _, bar := range bars {
		m = math.Max(m, bar.Value)
	}
	if m <= 0 {
		return 1
	}
	// 向上取整到整齐的刻度
	step := math.Pow(10, math.Floor(math.Log10(m)))
	return math.Ceil(m/step) * step
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
