// Package scanner orchestrates one analysis run: it discovers source files,
// fans them out to per-language workers, waits for every worker, then resolves
// relationships against the complete class set and assembles the Schema.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/classmap/internal/analyzer"
	"github.com/mvp-joe/classmap/internal/cache"
	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/relationship"
)

// Options controls discovery limits and analysis passes.
type Options struct {
	Include      []string
	Ignore       []string
	SkipDirs     []string
	SkipFiles    []string
	MaxFiles     int
	MaxFileBytes int64
	Workers      int // 0 means runtime.NumCPU()
	DetectCycles bool
	Endpoints    bool
}

// DefaultOptions returns the limits and passes used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxFiles:     5000,
		MaxFileBytes: 500000,
		DetectCycles: true,
		Endpoints:    true,
	}
}

// Partition is the analysis output of every file in one language family.
// It keeps the analyzer registry that produced it, since relationship
// candidates are resolved only after every partition is complete.
type Partition struct {
	Family    string
	Digest    uint64
	Files     []string
	Records   map[string][]model.ClassRecord
	Endpoints []model.Endpoint
	Analyzed  int
	Failed    int

	registry *analyzer.Registry
}

// Result is the outcome of one scan.
type Result struct {
	Schema   *model.Schema
	Detector *relationship.Detector
	Reused   []string // families served from the cache
	Elapsed  time.Duration
}

// Scanner runs analyses. A Scanner may be reused for successive runs; with a
// cache attached, unchanged language partitions are not re-analyzed. Scans
// sharing a cache must not run concurrently.
type Scanner struct {
	opts     Options
	logger   *slog.Logger
	progress ProgressReporter
	cache    *cache.Cache[*Partition]
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for per-file failures and run summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(s *Scanner) {
		s.progress = p
	}
}

// WithCache attaches a partition cache.
func WithCache(c *cache.Cache[*Partition]) Option {
	return func(s *Scanner) {
		s.cache = c
	}
}

// New creates a Scanner.
func New(opts Options, options ...Option) *Scanner {
	s := &Scanner{
		opts:     opts,
		logger:   slog.Default(),
		progress: NoOpProgressReporter{},
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Scan analyzes every eligible file under root.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	discovery, err := NewDiscovery(absRoot, DiscoveryOptions{
		Include:      s.opts.Include,
		Ignore:       s.opts.Ignore,
		SkipDirs:     s.opts.SkipDirs,
		SkipFiles:    s.opts.SkipFiles,
		MaxFileBytes: s.opts.MaxFileBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile path patterns: %w", err)
	}

	files, oversized, err := discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files under %s: %w", absRoot, err)
	}
	if oversized > 0 {
		s.logger.Warn("skipped oversized files", "count", oversized, "max_file_bytes", s.opts.MaxFileBytes)
	}
	if s.opts.MaxFiles > 0 && len(files) > s.opts.MaxFiles {
		return nil, fmt.Errorf("%w: found %d, limit %d", ErrTooManyFiles, len(files), s.opts.MaxFiles)
	}
	s.progress.OnDiscoveryComplete(len(files), oversized)

	result, err := s.analyze(ctx, absRoot, files)
	if err != nil {
		return nil, err
	}
	result.Schema.Meta.SkippedFiles = oversized
	result.Elapsed = time.Since(start)

	s.progress.OnComplete(&result.Schema.Meta, result.Elapsed)
	s.logger.Info("analysis complete",
		"files", result.Schema.Meta.FilesScanned,
		"classes", result.Schema.Meta.ClassesFound,
		"relations", len(result.Schema.Relations),
		"elapsed", result.Elapsed)
	return result, nil
}

// analyze runs one worker per language family, waits for all of them, and
// only then resolves relationships over the merged class set.
func (s *Scanner) analyze(ctx context.Context, root string, files []File) (*Result, error) {
	byFamily := make(map[string][]File)
	for _, f := range files {
		byFamily[f.Family] = append(byFamily[f.Family], f)
	}
	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)

	s.progress.OnAnalysisStart(len(files))

	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	partitions := make([]*Partition, len(families))
	reused := make([]bool, len(families))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, family := range families {
		g.Go(func() error {
			p, hit, err := s.partition(gctx, family, byFamily[family])
			if err != nil {
				return err
			}
			partitions[i] = p
			reused[i] = hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	schema := model.NewSchema()
	schema.Meta.Root = root

	var all []model.ClassRecord
	for _, p := range partitions {
		langs := make([]string, 0, len(p.Records))
		for lang := range p.Records {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			schema.Classes[lang] = append(schema.Classes[lang], p.Records[lang]...)
			all = append(all, p.Records[lang]...)
		}
		schema.Endpoints = append(schema.Endpoints, p.Endpoints...)
		schema.Meta.FilesScanned += p.Analyzed
		schema.Meta.FailedFiles += p.Failed
	}

	detector := relationship.NewDetector(all, relationship.WithLogger(s.logger))
	stats := make(map[string]model.AnalyzerStats)
	for _, p := range partitions {
		detector.Add(p.registry.DetectAllRelationships(all)...)
		for name, st := range p.registry.Stats() {
			stats[name] = st
		}
	}
	schema.Relations = detector.Run()

	for lang := range schema.Classes {
		schema.Meta.Languages = append(schema.Meta.Languages, lang)
	}
	sort.Strings(schema.Meta.Languages)
	if schema.Meta.Languages == nil {
		schema.Meta.Languages = []string{}
	}

	schema.Meta.ClassesFound = detector.KnownClasses()
	schema.Meta.AnalyzerStats = stats
	schema.Meta.RelationshipStats = detector.Statistics()
	if s.opts.DetectCycles {
		schema.Meta.CircularDependencies = detector.DetectCircularDependencies()
	}
	if summary, err := detector.Summary(); err != nil {
		s.logger.Warn("failed to summarize relationship graph", "error", err)
	} else {
		schema.Meta.Graph = summary
	}

	result := &Result{Schema: schema, Detector: detector}
	for i, hit := range reused {
		if hit {
			result.Reused = append(result.Reused, families[i])
		}
	}
	return result, nil
}

// partition analyzes one language family in sorted path order with a fresh
// registry, or returns the cached partition when its inputs are unchanged.
func (s *Scanner) partition(ctx context.Context, family string, files []File) (*Partition, bool, error) {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	var digest uint64
	if s.cache != nil {
		d, err := cache.DigestFiles(paths)
		if err != nil {
			s.logger.Debug("digest failed, analyzing without cache", "family", family, "error", err)
		} else {
			digest = d
			if p, ok := s.cache.Get(digest); ok && p.Family == family {
				for _, path := range paths {
					s.progress.OnFileAnalyzed(path)
				}
				return p, true, nil
			}
		}
	}

	p := &Partition{
		Family:   family,
		Digest:   digest,
		Files:    paths,
		Records:  make(map[string][]model.ClassRecord),
		registry: analyzer.NewRegistry(analyzer.WithLogger(s.logger)),
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		records, err := p.registry.AnalyzeFile(f.Path, f.Package)
		s.progress.OnFileAnalyzed(f.Path)
		if err != nil {
			s.logger.Warn("failed to analyze file", "path", f.RelPath, "error", err)
			p.Failed++
			continue
		}
		p.Analyzed++
		for _, rec := range records {
			p.Records[rec.Language] = append(p.Records[rec.Language], rec)
		}
	}

	if s.opts.Endpoints {
		p.Endpoints = p.registry.ExtractAllEndpoints(paths)
	}

	if s.cache != nil && digest != 0 {
		s.cache.Set(digest, p)
	}
	return p, false, nil
}
