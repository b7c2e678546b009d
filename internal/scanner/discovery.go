package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/classmap/internal/analyzer"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{
	"node_modules", "__pycache__", ".git", ".svn", ".hg", "venv", ".venv", "env",
	"dist", "build", "target", "bin", "obj", "out", ".idea", ".vscode", ".classmap",
	"coverage", ".next", ".tox",
}

// DefaultSkipFiles are base-name patterns of files never analyzed.
var DefaultSkipFiles = []string{
	"*.min.js", "*.map", "*.lock", "*.pyc", "*.class", "*.o", "*.so", "*.dll", "*.exe",
}

var backupSuffixes = []string{"~", ".bak", ".backup", ".old"}

// File is one source file selected for analysis.
type File struct {
	Path    string // absolute path
	RelPath string // slash-separated path under the root
	Family  string // analyzer family, e.g. "typescript"
	Package string // package hint derived from RelPath
	Size    int64
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery selects analyzable files under a root directory.
type Discovery struct {
	rootDir      string
	maxFileBytes int64
	includes     []compiledPattern
	ignores      []compiledPattern
	skipFiles    []compiledPattern
	skipDirs     map[string]bool
}

// DiscoveryOptions configures a Discovery. Empty Include selects every
// supported extension; nil SkipDirs and SkipFiles fall back to the defaults.
type DiscoveryOptions struct {
	Include      []string
	Ignore       []string
	SkipDirs     []string
	SkipFiles    []string
	MaxFileBytes int64
}

// NewDiscovery compiles the configured patterns for rootDir.
func NewDiscovery(rootDir string, opts DiscoveryOptions) (*Discovery, error) {
	d := &Discovery{
		rootDir:      rootDir,
		maxFileBytes: opts.MaxFileBytes,
		skipDirs:     make(map[string]bool),
	}

	var err error
	if d.includes, err = compilePatterns(opts.Include); err != nil {
		return nil, err
	}
	if d.ignores, err = compilePatterns(opts.Ignore); err != nil {
		return nil, err
	}

	skipFiles := opts.SkipFiles
	if skipFiles == nil {
		skipFiles = DefaultSkipFiles
	}
	if d.skipFiles, err = compilePatterns(skipFiles); err != nil {
		return nil, err
	}

	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}
	for _, name := range skipDirs {
		d.skipDirs[name] = true
	}

	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Discover walks the root and returns eligible files sorted by relative path,
// along with the number of supported files skipped for exceeding the size limit.
func (d *Discovery) Discover() (files []File, oversized int, err error) {
	files = []File{}

	err = filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			if relPath != "." && d.skipDir(entry.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || d.skipFile(entry.Name(), relPath) {
			return nil
		}

		family := analyzer.FamilyFor(path)
		if family == "" {
			return nil
		}
		if len(d.includes) > 0 && !matchesAnyPattern(relPath, d.includes) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if d.maxFileBytes > 0 && info.Size() > d.maxFileBytes {
			oversized++
			return nil
		}

		files = append(files, File{
			Path:    path,
			RelPath: relPath,
			Family:  family,
			Package: PackageHint(relPath),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, oversized, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, oversized, nil
}

func (d *Discovery) skipDir(name, relPath string) bool {
	if d.skipDirs[name] || strings.HasPrefix(name, ".") {
		return true
	}
	// "vendor/**" should also prune the vendor directory itself.
	return matchesAnyPattern(relPath, d.ignores) || matchesAnyPattern(relPath+"/**", d.ignores)
}

func (d *Discovery) skipFile(name, relPath string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, suffix := range backupSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, cp := range d.skipFiles {
		if cp.glob.Match(name) {
			return true
		}
	}
	return matchesAnyPattern(relPath, d.ignores)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// A root-level path also matches "**/"-prefixed patterns, so "**/*.py"
	// selects both "setup.py" and "pkg/mod.py".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
				return true
			}
		}
	}

	return false
}

// PackageHint derives a package name from a file's slash-separated relative
// path: its directory with separators replaced by dots, or "main" at the root.
func PackageHint(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(relPath)))
	pkg := strings.Trim(strings.ReplaceAll(dir, "/", "."), ".")
	if pkg == "" {
		return "main"
	}
	return pkg
}
