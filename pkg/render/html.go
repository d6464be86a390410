package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/gauge"
	"github.com/elonfeng/lens/pkg/present"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Stop lists come from package constants and positions are numbers, so the
// generated CSS is trusted.
var funcMap = template.FuncMap{
	"conic": func(stops []gauge.Stop) template.CSS {
		return template.CSS("background: " + gauge.CSSConic(stops))
	},
	"linear": func(direction string, stops []gauge.Stop) template.CSS {
		return template.CSS("background: " + gauge.CSSLinear(direction, stops))
	},
	"needle": func(r *gauge.Radial) template.CSS {
		return template.CSS(fmt.Sprintf("transform: rotate(%gdeg); background: %s", r.NeedleRotation, r.NeedleColor))
	},
	"bottom": func(pct float64) template.CSS {
		return template.CSS(fmt.Sprintf("bottom: %g%%", pct))
	},
	"left": func(pct float64) template.CSS {
		return template.CSS(fmt.Sprintf("left: %g%%", pct))
	},
	"textColor": func(c string) template.CSS {
		return template.CSS("color: " + c)
	},
	"swatch": func(b bucket.Bucket) template.CSS {
		return template.CSS("background: " + b.Color)
	},
	"markdown": Markdown,
	"legend": func(name string) []bucket.Bucket {
		t, ok := bucket.Lookup(name)
		if !ok {
			return nil
		}
		return t.Buckets()
	},
}

var pageTmpl = template.Must(template.New("report.html").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html"))

// HTML writes rep as a self-contained page.
func HTML(w io.Writer, rep *present.Report) error {
	if err := pageTmpl.ExecuteTemplate(w, "report.html", rep); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Markdown converts commentary to HTML. Raw HTML in the source is dropped.
func Markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(src), p, r))
}
