package scanner

import (
	"time"

	"github.com/mvp-joe/classmap/internal/model"
)

// ProgressReporter provides callbacks for reporting scan progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryComplete is called once files have been selected.
	OnDiscoveryComplete(files, skipped int)

	// OnAnalysisStart is called before any file is analyzed.
	OnAnalysisStart(totalFiles int)

	// OnFileAnalyzed is called after each file, from worker goroutines.
	// Implementations must be safe for concurrent use.
	OnFileAnalyzed(path string)

	// OnComplete is called once the schema has been assembled.
	OnComplete(meta *model.Meta, elapsed time.Duration)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnDiscoveryComplete(files, skipped int)              {}
func (NoOpProgressReporter) OnAnalysisStart(totalFiles int)                      {}
func (NoOpProgressReporter) OnFileAnalyzed(path string)                          {}
func (NoOpProgressReporter) OnComplete(meta *model.Meta, elapsed time.Duration) {}
