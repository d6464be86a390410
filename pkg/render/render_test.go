package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/present"
)

const politicalPayload = `{
  "title": "<script>alert(1)</script>兩岸交流新局",
  "content": "內文",
  "url": "https://news.example.com/p/9",
  "analysis": {
    "meta": {"is_political": true, "political_spectrum_score": 0, "political_leaning_label": "中立報導",
             "clickbait_score": 10, "clickbait_verdict": "極度聳動"},
    "narrative_mode": {"cognitive_tactic": "稻草人"},
    "entity_analysis": [{"name": "陸委會", "alignment_score": -10, "author_stance": "敵視", "analysis": "全篇負面"}],
    "insider_critique": {"summary": "摘要內容", "commentary": "這篇 **很誇張** 的報導 <img src=x onerror=alert(1)>"}
  }
}`

func report(t *testing.T, raw string) *present.Report {
	t.Helper()
	r, err := analysis.Adapt([]byte(raw), analysis.Options{})
	require.NoError(t, err)
	return present.Build(r)
}

func TestHTMLPolitical(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, report(t, politicalPayload)))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "<script>alert(1)</script>兩岸交流新局", doc.Find("h1.title").Text())
	assert.Equal(t, "絕對中立", doc.Find(".spectrum .bucket-label").Text())

	needle, ok := doc.Find(".spectrum .needle").Attr("style")
	require.True(t, ok)
	assert.Contains(t, needle, "rotate(0deg)")
	assert.Contains(t, needle, "#FFFFFF")

	disc, _ := doc.Find(".spectrum .disc").Attr("style")
	assert.Contains(t, disc, "conic-gradient(from 270deg")

	marker, _ := doc.Find(".clickbait .marker").Attr("style")
	assert.Contains(t, marker, "bottom: 100%")
	assert.True(t, doc.Find(".clickbait .verdict").HasClass("tone-alarming"))

	ent := doc.Find(".entities .entity").First()
	assert.Equal(t, "陸委會", ent.Find(".name").Text())
	assert.Equal(t, "大反派(妖魔化)", ent.Find(".role").Text())
	left, _ := ent.Find(".marker").Attr("style")
	assert.Contains(t, left, "left: 0%")
	assert.True(t, ent.Find(".stance").HasClass("tone-negative"))

	assert.Equal(t, "很誇張", doc.Find(".commentary strong").Text())
	assert.Equal(t, 0, doc.Find(".commentary img").Length())
	assert.Contains(t, doc.Find(".tactic").Text(), "稻草人")

	assert.Equal(t, bucket.PoliticalSpectrum.Len(), doc.Find("table.legend.political tr").Length()-1)
	assert.Equal(t, bucket.EntityRole.Len(), doc.Find("table.legend.entity tr").Length()-1)
}

func TestHTMLNonPolitical(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(politicalPayload, `"is_political": true`, `"is_political": false`, 1)
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, report(t, raw)))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(".calm").Length())
	assert.Equal(t, "摘要內容", doc.Find(".calm .summary").Text())
	assert.Equal(t, 0, doc.Find(".spectrum").Length())
	assert.Equal(t, 0, doc.Find(".entities").Length())
}

func TestHTMLGaugeError(t *testing.T) {
	t.Parallel()

	rep := report(t, politicalPayload)
	rep.Spectrum.Gauge = nil
	rep.Spectrum.Bucket = nil
	rep.Spectrum.Error = "score 11 out of range for political spectrum [-10, 10]"

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, rep))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Contains(t, doc.Find(".spectrum .error").Text(), "out of range")
	assert.Equal(t, 0, doc.Find(".spectrum .needle").Length())
	assert.Equal(t, 1, doc.Find(".clickbait .marker").Length())
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, report(t, politicalPayload)))
	out := buf.String()

	assert.Contains(t, out, "SPECTRUM")
	assert.Contains(t, out, "絕對中立 (0)")
	assert.Contains(t, out, "#極度聳動")
	assert.Contains(t, out, "大反派(妖魔化)")
	assert.Contains(t, out, "文章戰術偵測: 稻草人")
	assert.Contains(t, out, "[|-------------------]")
}

func TestTextNonPolitical(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(politicalPayload, `"is_political": true`, `"is_political": false`, 1)
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, report(t, raw)))
	assert.Contains(t, buf.String(), "非政治性內容")
	assert.NotContains(t, buf.String(), "SPECTRUM")
}

func TestLegend(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Legend(&buf, bucket.EntityRole))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2+bucket.EntityRole.Len())
	assert.Contains(t, lines[0], "entity")
	assert.Contains(t, buf.String(), "賣國賊、邪惡軸心")
}

func TestBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[|-------------------]", bar(0))
	assert.Equal(t, "[-------------------|]", bar(1))
	assert.Len(t, bar(0.5), barWidth+2)
}
