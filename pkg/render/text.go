// Package render draws present.Reports for terminals and browsers.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/present"
)

const barWidth = 20

// Text writes a terminal summary of rep.
func Text(w io.Writer, rep *present.Report) error {
	fmt.Fprintf(w, "%s\n%s\n\n", rep.Title, rep.URL)

	if !rep.IsPolitical {
		fmt.Fprintln(w, "非政治性內容")
		if rep.Summary != "" {
			fmt.Fprintf(w, "\n%s\n", rep.Summary)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s := rep.Spectrum; s != nil {
		if s.Error != "" {
			fmt.Fprintf(tw, "SPECTRUM\t%s\tunavailable: %s\n", s.ScoreText, s.Error)
		} else {
			fmt.Fprintf(tw, "SPECTRUM\t%s\t%s\t%s (%s)\t#%s\n",
				s.ScoreText, bar(s.Gauge.Offset*2), s.Bucket.Label, s.Bucket.Range, s.LeaningLabel)
		}
	}
	if c := rep.Clickbait; c != nil {
		if c.Error != "" {
			fmt.Fprintf(tw, "CLICKBAIT\t%g\tunavailable: %s\n", c.Score, c.Error)
		} else {
			fmt.Fprintf(tw, "CLICKBAIT\t%g\t%s\t#%s\t%s\n", c.Score, bar(c.Gauge.Percentage/100), c.Verdict, c.Tone)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rep.Summary != "" {
		fmt.Fprintf(w, "\n摘要: %s\n", rep.Summary)
	}
	if rep.Commentary != "" {
		fmt.Fprintf(w, "評論: %s\n", rep.Commentary)
	}
	if rep.Tactic != "" {
		fmt.Fprintf(w, "文章戰術偵測: %s\n", rep.Tactic)
	}

	if len(rep.Entities) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tSCORE\tALIGNMENT\tROLE\tSTANCE")
	for _, e := range rep.Entities {
		if e.Error != "" {
			fmt.Fprintf(tw, "%s\t%g\tunavailable: %s\t\t%s\n", e.Name, e.Score, e.Error, e.Stance)
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\n", e.Name, e.Score, bar(e.Gauge.Percentage/100), e.Role.Label, e.Stance)
	}
	return tw.Flush()
}

// Legend writes a bucket table as the info modal shows it.
func Legend(w io.Writer, t *bucket.Table) error {
	fmt.Fprintf(w, "%s (%s)\n", t.Name(), t.Domain())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANGE\tLABEL\tDESCRIPTION\tEXAMPLES\tCOLOR")
	for _, b := range t.Buckets() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			b.Range, b.Label, b.Description, strings.Join(b.Examples, "、"), b.Color)
	}
	return tw.Flush()
}

// bar draws a fixed-width track with a marker at fraction f of its length.
func bar(f float64) string {
	pos := int(f*float64(barWidth-1) + 0.5)
	if pos < 0 {
		pos = 0
	}
	if pos > barWidth-1 {
		pos = barWidth - 1
	}
	return "[" + strings.Repeat("-", pos) + "|" + strings.Repeat("-", barWidth-1-pos) + "]"
}
