package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/present"
)

func politicalReport(spectrum, clickbait float64) *present.Report {
	b, _ := bucket.PoliticalSpectrum.Classify(spectrum)
	return &present.Report{
		Title:       "標題",
		URL:         "https://news.example.com/1",
		IsPolitical: true,
		Summary:     "摘要",
		Spectrum:    &present.SpectrumView{Score: spectrum, LeaningLabel: "深綠", Bucket: &b},
		Clickbait:   &present.ClickbaitView{Score: clickbait, Verdict: "聳動"},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	th := Thresholds{Clickbait: 7, Spectrum: 8}

	_, ok := Evaluate(politicalReport(-3, 2), th, "feed")
	assert.False(t, ok)

	n, ok := Evaluate(politicalReport(-9, 2), th, "feed")
	require.True(t, ok)
	assert.Equal(t, []string{"spectrum -9 (激進獨派/深綠)"}, n.Reasons)
	assert.Equal(t, "feed", n.Feed)
	assert.Equal(t, "激進獨派/深綠", n.Bucket)

	n, ok = Evaluate(politicalReport(10, 7), th, "")
	require.True(t, ok)
	assert.Len(t, n.Reasons, 2)

	_, ok = Evaluate(politicalReport(10, 10), Thresholds{}, "")
	assert.False(t, ok)

	_, ok = Evaluate(&present.Report{IsPolitical: false}, th, "")
	assert.False(t, ok)
	_, ok = Evaluate(nil, th, "")
	assert.False(t, ok)

	failed := politicalReport(0, 9)
	failed.Spectrum = &present.SpectrumView{Score: 11, Error: "out of range"}
	n, ok = Evaluate(failed, th, "")
	require.True(t, ok)
	assert.Equal(t, []string{"clickbait 9 (聳動)"}, n.Reasons)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Name() string { return m.Called().String(0) }

func (m *mockNotifier) Send(ctx context.Context, n *Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestManagerBroadcast(t *testing.T) {
	t.Parallel()

	ok := &mockNotifier{}
	ok.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	bad := &mockNotifier{}
	bad.On("Name").Return("bad")
	bad.On("Send", mock.Anything, mock.Anything).Return(errors.New("boom")).Once()

	m := NewManager([]Notifier{bad, ok})
	assert.True(t, m.HasNotifiers())

	err := m.Broadcast(context.Background(), &Notification{Title: "x"})
	assert.EqualError(t, err, "bad: boom")
	ok.AssertExpectations(t)
	bad.AssertExpectations(t)

	assert.False(t, NewManager(nil).HasNotifiers())
	assert.NoError(t, NewManager(nil).Broadcast(context.Background(), &Notification{}))
}

func TestWebhookSignsBody(t *testing.T) {
	t.Parallel()

	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := &Notification{Title: "標題", Reasons: []string{"clickbait 9"}}
	require.NoError(t, NewWebhook(srv.URL, "s3cret").Send(context.Background(), n))

	assert.Equal(t, "sha256="+Sign("s3cret", gotBody), gotSig)
	var decoded Notification
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, *n, decoded)
}

func TestWebhookStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, "").Send(context.Background(), &Notification{})
	assert.EqualError(t, err, "webhook status 418")
}

func TestSlackAndDiscordPayloads(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = nil
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := &Notification{Title: "標題", URL: "https://news.example.com/1", Spectrum: -9, Reasons: []string{"spectrum -9"}}

	require.NoError(t, NewSlack(srv.URL).Send(context.Background(), n))
	blocks, ok := got["blocks"].([]any)
	require.True(t, ok)
	assert.Len(t, blocks, 3)

	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), n))
	embeds, ok := got["embeds"].([]any)
	require.True(t, ok)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "標題", embed["title"])
	assert.Equal(t, float64(0x4BA069), embed["color"])
}
