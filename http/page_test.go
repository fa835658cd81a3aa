package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fauxpas/vocab"
)

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func formValues(sel vocab.Selection) url.Values {
	values := url.Values{}
	for name, v := range sel.Values() {
		values.Set(name, v)
	}
	return values
}

func TestIndexPage(t *testing.T) {
	setup(t)
	w := get(newTestHandler(), "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "🍄 Fungi or Faux Pas?")
	assert.Contains(t, body, "Mushroom Edibility Predictor")
	for _, name := range vocab.Names() {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.Contains(t, body, "<svg")
	assert.NotContains(t, body, "Confidence Gauge")
	assert.NotContains(t, body, "Confidence:")
}

func TestIndexPageUnknownPath(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(newTestHandler(), "/nope").Code)
}

func TestFormPredict(t *testing.T) {
	setup(t)
	w := postForm(newTestHandler(), formValues(baseline))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Edible 🍽️ (Confidence: 0.73)")
	assert.Contains(t, body, "Low confidence—please verify!")
	assert.Contains(t, body, "Confidence Gauge")
	assert.Contains(t, body, `fill="orange"`)
	assert.Contains(t, body, `<option value="none" selected>`)
}

func TestFormPredictConfidentPoisonous(t *testing.T) {
	setup(t)
	sel := baseline
	sel.Odor = "pungent"
	sel.GillSize = "narrow"
	sel.Bruises = "bruises"

	w := postForm(newTestHandler(), formValues(sel))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Poisonous ☠️ (Confidence: 0.67)")
	assert.NotContains(t, w.Body.String(), "Low confidence")
}

func TestFormPredictMissingField(t *testing.T) {
	setup(t)
	values := formValues(baseline)
	values.Del(vocab.Habitat)

	w := postForm(newTestHandler(), values)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `class="error"`)
	assert.Contains(t, w.Body.String(), "habitat")
	assert.NotContains(t, w.Body.String(), "Confidence Gauge")
}
