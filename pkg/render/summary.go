package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

const percent = 100

// Summary writes a one-line digest of a chronological series: the first and
// last line counts, the net change and cache effectiveness.
func Summary(w io.Writer, series *linecount.Series, noColor bool) error {
	if series.Len() == 0 {
		_, err := fmt.Fprintln(w, msgNoCommits)

		return err
	}

	first := series.Entries[0].Lines
	last := series.Entries[series.Len()-1].Lines

	delta := color.New(color.FgGreen)
	if last < first {
		delta = color.New(color.FgRed)
	}

	bold := color.New(color.Bold)

	if noColor {
		delta.DisableColor()
		bold.DisableColor()
	}

	_, err := fmt.Fprintf(w, "%s commits, %s → %s lines (%s), %s objects measured, cache hit rate %.1f%%\n",
		bold.Sprint(humanize.Comma(int64(series.Len()))),
		humanize.Comma(int64(first)),
		bold.Sprint(humanize.Comma(int64(last))),
		delta.Sprint(signedComma(last-first)),
		humanize.Comma(int64(series.Cache.Entries)),
		series.Cache.HitRate()*percent,
	)

	return err
}
