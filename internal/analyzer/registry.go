package analyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// ErrUnsupported is returned when no analyzer handles a file extension.
var ErrUnsupported = errors.New("unsupported file type")

// Registry maps file extensions to one analyzer instance per language family
// for the duration of one repository scan. Files of the same family share an
// instance so names registered from earlier files resolve in later ones.
type Registry struct {
	byExt     map[string]Analyzer
	analyzers []Analyzer
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for per-file endpoint failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry builds a registry with fresh analyzer instances.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// Reset replaces every analyzer with a fresh instance. Call it between
// analyses of unrelated repositories.
func (r *Registry) Reset() {
	r.byExt = make(map[string]Analyzer)
	r.analyzers = r.analyzers[:0]
	for _, v := range variants {
		a := v.build()
		r.analyzers = append(r.analyzers, a)
		for _, ext := range v.extensions {
			r.byExt[ext] = a
		}
	}
}

// Get returns the analyzer for path, or nil when the extension is unsupported.
func (r *Registry) Get(path string) Analyzer {
	return r.byExt[normalizeExt(path)]
}

// Analyzers returns the registry's analyzers in table order.
func (r *Registry) Analyzers() []Analyzer {
	out := make([]Analyzer, len(r.analyzers))
	copy(out, r.analyzers)
	return out
}

// AnalyzeFile dispatches one file to its analyzer.
func (r *Registry) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	a := r.Get(path)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return a.AnalyzeFile(path, packageHint)
}

// DetectAllRelationships concatenates every analyzer's relationships and
// removes duplicates by (from, to, type), keeping the first occurrence.
func (r *Registry) DetectAllRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	var edges []model.RelationshipEdge
	seen := make(map[model.EdgeKey]struct{})
	for _, a := range r.analyzers {
		for _, e := range a.DetectRelationships(all) {
			if _, dup := seen[e.Key()]; dup {
				continue
			}
			seen[e.Key()] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// ExtractAllEndpoints runs endpoint extraction over paths. Files without an
// analyzer are skipped; extraction failures are logged and skipped.
func (r *Registry) ExtractAllEndpoints(paths []string) []model.Endpoint {
	var endpoints []model.Endpoint
	for _, path := range paths {
		a := r.Get(path)
		if a == nil {
			continue
		}
		found, err := a.ExtractEndpoints(path)
		if err != nil {
			r.logger.Warn("endpoint extraction failed", "path", path, "error", err)
			continue
		}
		endpoints = append(endpoints, found...)
	}
	return endpoints
}

// Stats returns per-family statistics for analyzers that saw any classes.
func (r *Registry) Stats() map[string]model.AnalyzerStats {
	stats := make(map[string]model.AnalyzerStats)
	for _, a := range r.analyzers {
		s := a.Stats()
		if s.ClassesFound == 0 && s.Relationships == 0 {
			continue
		}
		stats[a.Name()] = s
	}
	return stats
}

func normalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
