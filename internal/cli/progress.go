package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/classmap/internal/model"
)

// CLIProgressReporter implements scanner.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	out     io.Writer
	mu      sync.Mutex // guards fileBar; files are reported from worker goroutines
	fileBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{out: out}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files, skipped int) {
	if skipped > 0 {
		fmt.Fprintf(c.out, "Analyzing %s files (%s oversized files skipped)\n", formatNumber(files), formatNumber(skipped))
		return
	}
	fmt.Fprintf(c.out, "Analyzing %s files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnAnalysisStart(totalFiles int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Analyzing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileAnalyzed(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(meta *model.Meta, elapsed time.Duration) {
	c.mu.Lock()
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	c.mu.Unlock()

	fmt.Fprintf(c.out, "✓ Analysis complete: %s classes, %s relations in %.1fs\n",
		formatNumber(meta.ClassesFound),
		formatNumber(meta.RelationshipStats.Total),
		elapsed.Seconds())
	if meta.FailedFiles > 0 {
		fmt.Fprintf(c.out, "  %s files could not be parsed\n", formatNumber(meta.FailedFiles))
	}
}
