package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/lens/pkg/analysis"
)

const reply = `{"title":"t","content":"c...","url":"https://news.example.com/x","analysis":{
"meta":{"is_political":true,"political_spectrum_score":2,"political_leaning_label":"疑美","clickbait_score":3,"clickbait_verdict":"普通"},
"narrative_mode":{},"entity_analysis":[],"insider_critique":{"summary":"s","commentary":"c"}}}`

func newClient(t *testing.T, h http.HandlerFunc) (*Client, *logtest.Hook) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewClient(srv.URL+"/", 5*time.Second, 0, analysis.Options{}, log), hook
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	c, hook := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://news.example.com/x", body["url"])

		io.WriteString(w, reply)
	})

	res, err := c.Analyze(context.Background(), "  https://news.example.com/x ")
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Meta().PoliticalSpectrumScore)
	assert.Equal(t, "https://news.example.com/x", res.SourceURL())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 200, hook.LastEntry().Data["status"])
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	for _, u := range []string{"", "news.example.com/x", "ftp://example.com/a", "https://", "javascript:alert(1)"} {
		_, err := c.Analyze(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, "url %q", u)
	}
	assert.Zero(t, calls.Load())
}

func TestAnalyzeStatusError(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"Article download() failed"}`)
	})

	_, err := c.Analyze(context.Background(), "https://news.example.com/x")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "Article download() failed", se.Detail)

	c, _ = newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err = c.Analyze(context.Background(), "https://news.example.com/x")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "bad gateway", se.Detail)
}

func TestAnalyzeServiceErrorEnvelope(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":"Failed to retrieve article title"}`)
	})
	_, err := c.Analyze(context.Background(), "https://news.example.com/x")
	var se *analysis.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "error", se.Field)
}

func TestAnalyzeCodeFence(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "```json\n"+reply+"\n```")
	})
	res, err := c.Analyze(context.Background(), "https://news.example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "t", res.Title())
}

func TestAnalyzeHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	// Runs before the server's Close, which waits for this handler.
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Analyze(ctx, "https://news.example.com/x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  ```{\"a\":1}```  ":     `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripCodeFence(in), "input %q", in)
	}
}
