// Package render turns a line count series into terminal charts, tables,
// HTML pages and structured documents.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

const msgNoCommits = "no commits"

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects an output renderer.
type Format string

// Supported formats.
const (
	FormatPlot  Format = "plot"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatHTML  Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatPlot, FormatTable, FormatJSON, FormatYAML, FormatHTML}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return FormatPlot, nil
	}

	for _, f := range Formats() {
		if f == normalized {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Options configures Write.
type Options struct {
	Format  Format
	Size    Size
	NoColor bool
	Title   string
}

// Write renders series, expected in chronological order, in the selected format.
func Write(w io.Writer, series *linecount.Series, opts Options) error {
	switch opts.Format {
	case FormatTable:
		return Table(w, series)
	case FormatJSON:
		return JSON(w, series)
	case FormatYAML:
		return YAML(w, series)
	case FormatHTML:
		return HTML(w, series, opts.Title)
	case FormatPlot, "":
		return Chart(w, series, ChartOptions{Size: opts.Size, NoColor: opts.NoColor})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}
