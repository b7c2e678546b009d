// Package analyzer defines the per-language analysis contract and the
// registry that routes files to one long-lived analyzer per language family.
package analyzer

import (
	"github.com/mvp-joe/classmap/internal/analyzer/parsers"
	"github.com/mvp-joe/classmap/internal/model"
)

// Analyzer extracts class records and relationship candidates from source
// files of one language family. Implementations accumulate state across
// files and are not safe for concurrent use.
type Analyzer interface {
	// Name returns the language family, e.g. "python" or "cpp".
	Name() string

	// CanAnalyze reports whether the file's extension belongs to this analyzer.
	CanAnalyze(path string) bool

	// AnalyzeFile parses one file and returns its class records.
	// A parse failure returns an error and no records.
	AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error)

	// DetectRelationships turns accumulated candidates into edges, given every
	// class discovered in the repository.
	DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge

	// ExtractEndpoints returns the HTTP routes declared in one file.
	ExtractEndpoints(path string) ([]model.Endpoint, error)

	// Stats reports how many classes were registered and edges detected.
	Stats() model.AnalyzerStats

	// Reset clears all accumulated state.
	Reset()
}

var (
	_ Analyzer = (*parsers.PythonAnalyzer)(nil)
	_ Analyzer = (*parsers.JavaAnalyzer)(nil)
	_ Analyzer = (*parsers.CSharpAnalyzer)(nil)
	_ Analyzer = (*parsers.TypeScriptAnalyzer)(nil)
	_ Analyzer = (*parsers.CppAnalyzer)(nil)
)

// variant pairs an analyzer constructor with the extensions it owns.
type variant struct {
	name       string
	extensions []string
	build      func() Analyzer
}

// variants is the closed extension-to-analyzer table.
var variants = []variant{
	{"python", []string{".py"}, func() Analyzer { return parsers.NewPythonAnalyzer() }},
	{"java", []string{".java"}, func() Analyzer { return parsers.NewJavaAnalyzer() }},
	{"csharp", []string{".cs"}, func() Analyzer { return parsers.NewCSharpAnalyzer() }},
	{"typescript", []string{".ts", ".tsx", ".js", ".jsx"}, func() Analyzer { return parsers.NewTypeScriptAnalyzer() }},
	{"cpp", []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".hh"}, func() Analyzer { return parsers.NewCppAnalyzer() }},
}

// SupportedExtensions returns every file extension with an analyzer.
func SupportedExtensions() []string {
	var exts []string
	for _, v := range variants {
		exts = append(exts, v.extensions...)
	}
	return exts
}

// FamilyFor returns the analyzer family name for a path, or "" if unsupported.
func FamilyFor(path string) string {
	ext := normalizeExt(path)
	for _, v := range variants {
		for _, e := range v.extensions {
			if e == ext {
				return v.name
			}
		}
	}
	return ""
}
