package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/present"
	"github.com/elonfeng/lens/pkg/service"
)

const payload = `{
  "title": "立法院三讀",
  "content": "內文",
  "url": "https://news.example.com/a/1",
  "analysis": {
    "meta": {"is_political": true, "political_spectrum_score": -8.6, "political_leaning_label": "深綠",
             "clickbait_score": 3, "clickbait_verdict": "平實"},
    "narrative_mode": {"is_heavy_quoting": true},
    "entity_analysis": [{"name": "行政院", "alignment_score": 5, "author_stance": "友善", "analysis": "正面"}],
    "insider_critique": {"summary": "摘要", "commentary": "評論"}
  }
}`

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, u string) (*analysis.Result, error) {
	args := m.Called(ctx, u)
	res, _ := args.Get(0).(*analysis.Result)
	return res, args.Error(1)
}

func newServer(t *testing.T, a Analyzer) http.Handler {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	return New(a, analysis.Options{}, 0, log).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndRequestID(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "0b6e5c1e-5b8f-4f55-9d43-7f0f1a2b3c4d")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "0b6e5c1e-5b8f-4f55-9d43-7f0f1a2b3c4d", rec.Header().Get(RequestIDHeader))
}

func TestTables(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/tables", "")
	assert.Equal(t, []any{"entity", "political"}, decode(t, rec)["data"])

	rec = do(t, h, http.MethodGet, "/api/v1/tables/political", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "political", body["name"])
	assert.Len(t, body["buckets"], 11)

	rec = do(t, h, http.MethodGet, "/api/v1/tables/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGauge(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/gauges/political_spectrum?score=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	radial := decode(t, rec)["radial"].(map[string]any)
	assert.Equal(t, 90.0, radial["needle_rotation_degrees"])

	rec = do(t, h, http.MethodGet, "/api/v1/gauges/clickbait?score=11", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "out_of_range", decode(t, rec)["kind"])

	rec = do(t, h, http.MethodGet, "/api/v1/gauges/clickbait?score=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/gauges/thermometer?score=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresent(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/present", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	var rep present.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.True(t, rep.IsPolitical)
	require.NotNil(t, rep.Spectrum)
	assert.Equal(t, "激進獨派/深綠", rep.Spectrum.Bucket.Label)
	require.Len(t, rep.Entities, 1)
	assert.Equal(t, "建設者(盟友)", rep.Entities[0].Role.Label)

	rec = do(t, h, http.MethodPost, "/api/v1/present?format=html", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "立法院三讀", doc.Find("h1.title").Text())
}

func TestPresentRejects(t *testing.T) {
	t.Parallel()
	h := newServer(t, nil)

	tests := []struct {
		name  string
		body  string
		kind  string
		field string
	}{
		{"not json", "<html>", "schema", ""},
		{"missing analysis", `{"title":"t","content":"c","url":"u"}`, "schema", "analysis"},
		{"out of range", strings.Replace(payload, `"clickbait_score": 3`, `"clickbait_score": 11`, 1), "validation", "analysis.meta.clickbait_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/present", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	res, err := analysis.Adapt([]byte(payload), analysis.Options{})
	require.NoError(t, err)

	a := &mockAnalyzer{}
	a.On("Analyze", mock.Anything, "https://news.example.com/a/1").Return(res, nil)
	a.On("Analyze", mock.Anything, "not a url").Return(nil, service.ErrInvalidURL)
	a.On("Analyze", mock.Anything, "https://down.example.com").Return(nil, &service.StatusError{Code: 500, Detail: "boom"})
	a.On("Analyze", mock.Anything, "https://flaky.example.com").Return(nil, errors.New("connection reset"))
	h := newServer(t, a)

	rec := do(t, h, http.MethodPost, "/api/v1/analyze", `{"url":"https://news.example.com/a/1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "立法院三讀", decode(t, rec)["title"])

	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `{"url":"https://down.example.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 500.0, decode(t, rec)["upstream_status"])

	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `{"url":"https://flaky.example.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze", `url=x`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.AssertExpectations(t)
}

func TestAnalyzeUnconfigured(t *testing.T) {
	t.Parallel()
	rec := do(t, newServer(t, nil), http.MethodPost, "/api/v1/analyze", `{"url":"https://x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
