package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"fauxpas/chart"
	"fauxpas/logger"
	"fauxpas/pipeline"
	"fauxpas/vocab"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// leftColumn 表单左列的下拉框数量
const leftColumn = 4

type pageOption struct {
	Label    string
	Selected bool
}

type pageField struct {
	Name        string
	DisplayName string
	Options     []pageOption
}

type pageData struct {
	Columns    [][]pageField
	Prediction *pipeline.Prediction
	Error      string
	Gauge      template.HTML
	Importance template.HTML
}

// RegisterPageHandlers 注册页面路由
func RegisterPageHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("POST /predict", handleFormPredict)
}

func newPageData(selected map[string]string) pageData {
	features := vocab.Features()
	fields := make([]pageField, len(features))
	for i, f := range features {
		field := pageField{Name: f.Name, DisplayName: f.DisplayName}
		for _, opt := range f.Options {
			field.Options = append(field.Options, pageOption{
				Label:    opt.Label,
				Selected: selected[f.Name] == opt.Label,
			})
		}
		fields[i] = field
	}

	split := min(leftColumn, len(fields))
	data := pageData{Columns: [][]pageField{fields[:split], fields[split:]}}
	if p := currentPredictor(); p != nil {
		// 图表为生成的SVG，标签已转义
		data.Importance = template.HTML(chart.FeatureImportance(importanceBars(p.Importances())))
	}
	return data
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, newPageData(nil))
}

func handleFormPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderPage(w, http.StatusBadRequest, pageData{Error: "invalid form submission"})
		return
	}

	values := make(map[string]string, len(vocab.Names()))
	for _, name := range vocab.Names() {
		values[name] = r.PostForm.Get(name)
	}

	data := newPageData(values)
	pred, status, err := predict(r.Context(), vocab.SelectionFromValues(values))
	if err != nil {
		data.Error = errorPayload(status, err).Error
		renderPage(w, status, data)
		return
	}

	data.Prediction = pred
	data.Gauge = template.HTML(chart.ConfidenceGauge(pred.Confidence))
	renderPage(w, http.StatusOK, data)
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		logger.Named("http").Errorw("failed to render page", logger.FieldError, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
