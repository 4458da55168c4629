package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

// Braille cells hold a 2x4 dot matrix.
const (
	brailleBase  = 0x2800
	dotsPerCellX = 2
	dotsPerCellY = 4

	minPlotCols = 8
	minPlotRows = 2

	// Rows taken by the x axis and its labels.
	axisRows = 2
)

// dotBits maps [y][x] within a cell to the braille dot bit.
var dotBits = [dotsPerCellY][dotsPerCellX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// ChartOptions configures the terminal line chart.
type ChartOptions struct {
	Size    Size
	NoColor bool
}

// Chart draws series as a braille line chart sized to opts.Size character
// cells. Ordinal 0 is drawn at the left edge, so callers wanting oldest-first
// charts pass a chronological series.
func Chart(w io.Writer, series *linecount.Series, opts ChartOptions) error {
	if series.Len() == 0 {
		_, err := fmt.Fprintln(w, msgNoCommits)

		return err
	}

	bounds := series.Bounds()
	yLabel := humanize.Comma(int64(bounds.YMax))
	labelWidth := len(yLabel)

	cols := max(opts.Size.Width-labelWidth-2, minPlotCols)
	rows := max(opts.Size.Height-axisRows, minPlotRows)

	canvas := newCanvas(cols, rows)
	canvas.plot(series.Lines(), bounds)

	ink := color.New(color.FgCyan)
	if opts.NoColor {
		ink.DisableColor()
	}

	var sb strings.Builder

	for row := range rows {
		label := ""

		switch row {
		case 0:
			label = yLabel
		case rows - 1:
			label = "0"
		}

		tick := "│"
		if label != "" {
			tick = "┤"
		}

		fmt.Fprintf(&sb, "%*s %s%s\n", labelWidth, label, tick, ink.Sprint(canvas.row(row)))
	}

	fmt.Fprintf(&sb, "%*s └%s\n", labelWidth, "", strings.Repeat("─", cols))

	xLeft, xRight := "0", humanize.Comma(int64(bounds.XMax))
	gap := max(cols-len(xLeft)-len(xRight), 1)
	fmt.Fprintf(&sb, "%*s  %s%s%s\n", labelWidth, "", xLeft, strings.Repeat(" ", gap), xRight)

	_, err := io.WriteString(w, sb.String())

	return err
}

type canvas struct {
	cols, rows int
	cells      [][]rune
}

func newCanvas(cols, rows int) *canvas {
	cells := make([][]rune, rows)
	for i := range cells {
		cells[i] = make([]rune, cols)
	}

	return &canvas{cols: cols, rows: rows, cells: cells}
}

func (c *canvas) dotsWide() int { return c.cols * dotsPerCellX }
func (c *canvas) dotsHigh() int { return c.rows * dotsPerCellY }

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 || x >= c.dotsWide() || y >= c.dotsHigh() {
		return
	}

	c.cells[y/dotsPerCellY][x/dotsPerCellX] |= dotBits[y%dotsPerCellY][x%dotsPerCellX]
}

// plot connects consecutive points of values scaled into the dot grid.
func (c *canvas) plot(values []int, bounds linecount.Bounds) {
	maxX := c.dotsWide() - 1
	maxY := c.dotsHigh() - 1

	scaleX := func(i int) int {
		if bounds.XMax == 0 {
			return 0
		}

		return (i*maxX + bounds.XMax/2) / bounds.XMax
	}

	scaleY := func(v int) int {
		if bounds.YMax == 0 {
			return maxY
		}

		return maxY - (v*maxY+bounds.YMax/2)/bounds.YMax
	}

	prevX, prevY := scaleX(0), scaleY(values[0])
	c.set(prevX, prevY)

	for i := 1; i < len(values); i++ {
		x, y := scaleX(i), scaleY(values[i])
		c.line(prevX, prevY, x, y)
		prevX, prevY = x, y
	}
}

// line draws a segment with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy

	for {
		c.set(x0, y0)

		if x0 == x1 && y0 == y1 {
			return
		}

		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}

		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) row(r int) string {
	out := make([]rune, c.cols)
	for i, bits := range c.cells[r] {
		if bits == 0 {
			out[i] = ' '
		} else {
			out[i] = brailleBase + bits
		}
	}

	return string(out)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
