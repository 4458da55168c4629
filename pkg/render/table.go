package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

const timeLayout = "2006-01-02 15:04:05 -0700"

// Table writes one row per entry: ordinal, commit, committer time, line
// count and the change from the previous row.
func Table(w io.Writer, series *linecount.Series) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	tbl.AppendHeader(table.Row{"#", "Commit", "Date", "Lines", "Delta"})

	for i, e := range series.Entries {
		delta := ""
		if i > 0 {
			delta = signedComma(e.Lines - series.Entries[i-1].Lines)
		}

		tbl.AppendRow(table.Row{e.Ordinal, e.Commit.Short(), e.When.Format(timeLayout), humanize.Comma(int64(e.Lines)), delta})
	}

	bounds := series.Bounds()
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d commits", series.Len()), "peak", humanize.Comma(int64(bounds.YMax)), ""})

	tbl.Render()

	return nil
}

func signedComma(v int) string {
	if v > 0 {
		return "+" + humanize.Comma(int64(v))
	}

	return humanize.Comma(int64(v))
}
