package commands

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

const progressThrottle = 100 * time.Millisecond

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("counting lines"),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("commits"),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "#", SaucerPadding: " ", BarStart: "|", BarEnd: "|"}),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalFile returns w as a file when it is one, for size detection.
func terminalFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)

	return f
}

// attachProgress drives a progress bar on w from the collector callbacks.
func attachProgress(opts *linecount.Options, w io.Writer) {
	var (
		bar   *progressbar.ProgressBar
		done  int
		total int
	)

	opts.OnStart = func(n int) {
		total = n
		bar = newProgressBar(w, n)
	}

	opts.OnCommit = func(linecount.Entry) {
		if bar == nil {
			return
		}

		_ = bar.Add(1)

		done++
		if done == total {
			_ = bar.Finish()
		}
	}
}
