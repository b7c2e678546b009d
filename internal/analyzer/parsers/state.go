package parsers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/classmap/internal/model"
)

// ErrParse marks a file the analyzer could not parse.
var ErrParse = errors.New("parse failed")

// state is the per-instance accumulation shared by every analyzer variant:
// the registered class names and the relationship candidates found so far.
// An instance lives for one repository scan and is not safe for concurrent use.
type state struct {
	language   string
	extensions map[string]bool

	classNames map[string]struct{}
	candidates []model.RelationshipEdge
	seen       map[model.EdgeKey]struct{}
	imports    []string
	importSet  map[string]struct{}

	lastRelationships int
}

func newState(language string, extensions ...string) *state {
	s := &state{language: language, extensions: make(map[string]bool)}
	for _, ext := range extensions {
		s.extensions[ext] = true
	}
	s.reset()
	return s
}

func (s *state) reset() {
	s.classNames = make(map[string]struct{})
	s.candidates = nil
	s.seen = make(map[model.EdgeKey]struct{})
	s.imports = nil
	s.importSet = make(map[string]struct{})
	s.lastRelationships = 0
}

// Name returns the analyzer's language family name.
func (s *state) Name() string { return s.language }

// CanAnalyze reports whether the file extension belongs to this analyzer.
func (s *state) CanAnalyze(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Reset discards every registered class name and candidate edge.
func (s *state) Reset() { s.reset() }

// Stats reports the classes registered and the relationships last detected.
func (s *state) Stats() model.AnalyzerStats {
	return model.AnalyzerStats{
		ClassesFound:  len(s.classNames),
		Relationships: s.lastRelationships,
	}
}

func (s *state) register(name string) {
	if name != "" {
		s.classNames[name] = struct{}{}
	}
}

func (s *state) known(name string) bool {
	_, ok := s.classNames[name]
	return ok
}

func (s *state) addEdge(from, to string, typ model.RelationshipType) {
	if from == "" || to == "" {
		return
	}
	e := model.RelationshipEdge{From: from, To: to, Type: typ, Source: model.SourceHeuristic}
	if _, dup := s.seen[e.Key()]; dup {
		return
	}
	s.seen[e.Key()] = struct{}{}
	s.candidates = append(s.candidates, e)
}

func (s *state) addImport(segment string) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return
	}
	if _, dup := s.importSet[segment]; dup {
		return
	}
	s.importSet[segment] = struct{}{}
	s.imports = append(s.imports, segment)
}

// resolve turns the accumulated candidates into this analyzer's relationship
// output against the full class set. Inheritance edges pass through untouched
// for later validation; usage-style edges need a known target other than the
// owner; imports matching a class name become dependency self-edges.
func (s *state) resolve(all []model.ClassRecord) []model.RelationshipEdge {
	known := make(map[string]struct{}, len(all)+len(s.classNames))
	for _, c := range all {
		known[c.Name] = struct{}{}
	}
	for name := range s.classNames {
		known[name] = struct{}{}
	}

	out := make([]model.RelationshipEdge, 0, len(s.candidates))
	seen := make(map[model.EdgeKey]struct{})
	add := func(e model.RelationshipEdge) {
		if _, dup := seen[e.Key()]; dup {
			return
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}

	for _, e := range s.candidates {
		switch e.Type {
		case model.Extends, model.Implements, model.Dependency:
			add(e)
		default:
			if _, ok := known[e.To]; ok && e.From != e.To {
				add(e)
			}
		}
	}

	for _, imp := range s.imports {
		if _, ok := known[imp]; ok {
			add(model.RelationshipEdge{From: imp, To: imp, Type: model.Dependency, Source: model.SourceHeuristic})
		}
	}

	s.lastRelationships = len(out)
	return out
}

// readSource reads a file and decodes it as UTF-8, replacing invalid sequences.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	return data, nil
}

func packageOrDefault(hint string) string {
	if hint == "" {
		return "main"
	}
	return hint
}

var genericArgs = regexp.MustCompile(`<[^<>]*>`)

// stripGenerics removes every balanced <...> group, innermost first.
func stripGenerics(s string) string {
	for {
		next := genericArgs.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

// normalizeTypeName reduces a type expression to its simple name:
// generics and array markers are dropped and only the last segment after
// "::" or "." is kept.
func normalizeTypeName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(strings.TrimSpace(s), "?*&")
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// splitTopLevel splits s on sep, ignoring separators nested in <>, () or [].
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// memberSet keeps first-seen order of class members and lets a typed field
// replace an earlier untyped entry with the same name.
type memberSet struct {
	items []string
	index map[string]int
}

func newMemberSet() *memberSet {
	return &memberSet{index: make(map[string]int)}
}

func (m *memberSet) add(name string) {
	if name == "" {
		return
	}
	if _, ok := m.index[name]; ok {
		return
	}
	m.index[name] = len(m.items)
	m.items = append(m.items, name)
}

func (m *memberSet) addField(name, typ string) {
	if name == "" {
		return
	}
	entry := name
	if typ != "" {
		entry = name + ": " + typ
	}
	if i, ok := m.index[name]; ok {
		if typ != "" && !strings.Contains(m.items[i], ":") {
			m.items[i] = entry
		}
		return
	}
	m.index[name] = len(m.items)
	m.items = append(m.items, entry)
}

func (m *memberSet) has(name string) bool {
	_, ok := m.index[name]
	return ok
}

func (m *memberSet) list() []string {
	out := make([]string, len(m.items))
	copy(out, m.items)
	return out
}

func newRecord(name, language, pkg, path string) model.ClassRecord {
	return model.ClassRecord{
		Name:       name,
		Language:   language,
		Stereotype: model.StereotypeClass,
		Package:    pkg,
		File:       path,
		Fields:     []string{},
		Methods:    []string{},
	}
}

func firstSegment(module string, seps string) string {
	module = strings.TrimSpace(module)
	if i := strings.IndexAny(module, seps); i >= 0 {
		return module[:i]
	}
	return module
}
