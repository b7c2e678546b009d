package parsers

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

var (
	cppInclude   = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*[<"]([^>"]+)[>"]`)
	cppEnum      = regexp.MustCompile(`\benum\s+(?:class|struct)?\s*(\w+)\s*(?::\s*[\w:]+\s*)?\{`)
	cppClass     = regexp.MustCompile(`\b(class|struct)\s+(?:(\w+)\s+)?(\w+)\s*(?:final\s*)?(?::\s*([^{;]+))?\{`)
	cppOutOfLine = regexp.MustCompile(`(?m)^[ \t]*(?:[\w:<>,*&]+[ \t]+)*[*&]?(\w+)::(~?\w+)\s*\([^;{]*\)[^;{]*\{`)

	cppField  = regexp.MustCompile(`(?m)^[ \t]*(?:(?:static|const|mutable|volatile|inline|constexpr|unsigned|signed)\s+)*([A-Za-z_][\w:]*(?:<[^;(){}]*>)?)[ \t]*([*&]*)[ \t]*([A-Za-z_]\w*)[ \t]*(?:\[[^\]]*\])?[ \t]*(?:=[^;]*)?;`)
	cppMethod = regexp.MustCompile(`(?m)^[ \t]*(?:(?:virtual|static|inline|explicit|constexpr|friend)\s+)*([A-Za-z_][\w:]*(?:<[^;(){}]*>)?[ \t]*[*&]*)[ \t]+[*&]*(~?[A-Za-z_]\w*)[ \t]*\(`)

	cppNew        = regexp.MustCompile(`\bnew\s+([A-Za-z_][\w:]*)`)
	cppScopeCall  = regexp.MustCompile(`\b([A-Za-z_]\w*)::\w+\s*\(`)
	cppMemberCall = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*(?:\.|->)\s*\w+\s*\(`)
	cppPure       = regexp.MustCompile(`\)\s*(?:const\s*)?=\s*0\s*;`)
	cppAccess     = regexp.MustCompile(`\b(?:public|private|protected|virtual)\b`)
	cppNested     = regexp.MustCompile(`\b(?:class|struct)\s+\w+[^;{()]*\{`)
)

var cppKeywords = map[string]bool{
	"return": true, "if": true, "else": true, "for": true, "while": true, "switch": true,
	"case": true, "delete": true, "new": true, "throw": true, "using": true, "typedef": true,
	"friend": true, "goto": true, "break": true, "continue": true, "default": true,
	"public": true, "private": true, "protected": true, "class": true, "struct": true,
	"enum": true, "namespace": true, "template": true, "virtual": true, "operator": true,
	"static": true, "inline": true, "explicit": true, "constexpr": true, "do": true,
	"sizeof": true, "const": true,
}

var cppUsageExcluded = map[string]bool{"this": true, "std": true, "cout": true, "cin": true}

// CppAnalyzer extracts classes and structs from C and C++ sources.
type CppAnalyzer struct {
	*state
}

// NewCppAnalyzer creates a C/C++ analyzer with empty state.
func NewCppAnalyzer() *CppAnalyzer {
	return &CppAnalyzer{state: newState("cpp", ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".hh")}
}

// AnalyzeFile scans one C or C++ file after stripping comments.
func (a *CppAnalyzer) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	text := stripCComments(source)
	language := cppLanguageFor(path)
	pkg := packageOrDefault(packageHint)

	// Include basenames become dependency edges only when they happen to name a class.
	for _, m := range cppInclude.FindAllStringSubmatch(text, -1) {
		base := filepath.Base(m[1])
		a.addImport(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	var records []model.ClassRecord
	byName := make(map[string]int)

	for _, loc := range cppEnum.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		a.register(name)
		rec := newRecord(name, language, pkg, path)
		rec.Stereotype = model.StereotypeEnum
		byName[name] = len(records)
		records = append(records, rec)
	}

	fieldSets := make(map[string]*memberSet)
	methodSets := make(map[string]*memberSet)

	for _, loc := range cppClass.FindAllStringSubmatchIndex(text, -1) {
		if precededByEnum(text, loc[0]) {
			continue
		}
		kind := text[loc[2]:loc[3]]
		name, nameEnd := text[loc[6]:loc[7]], loc[7]
		// "class Widget final" puts the real name in the export-macro slot.
		if name == "final" {
			if loc[4] < 0 {
				continue
			}
			name, nameEnd = text[loc[4]:loc[5]], loc[5]
		}
		a.register(name)

		rec := newRecord(name, language, pkg, path)
		if kind == "struct" {
			rec.Stereotype = model.StereotypeStruct
		}

		if loc[8] >= 0 {
			for _, base := range splitTopLevel(text[loc[8]:loc[9]], ',') {
				base = strings.TrimSpace(cppAccess.ReplaceAllString(stripGenerics(base), ""))
				if base == "" {
					continue
				}
				words := strings.Fields(base)
				a.addEdge(normalizeTypeName(words[len(words)-1]), name, model.Extends)
			}
		}

		body := Body(text, nameEnd)
		fields := newMemberSet()
		methods := newMemberSet()
		a.mineMembers(name, TopLevel(body), fields, methods)
		a.applyCppUsage(name, blankNestedTypes(body, cppNested))

		if cppPure.MatchString(body) {
			rec.Stereotype = model.StereotypeAbstract
			rec.Abstract = true
		}

		fieldSets[name] = fields
		methodSets[name] = methods
		byName[name] = len(records)
		records = append(records, rec)
	}

	// Out-of-line member definitions contribute methods and usage to their class.
	for _, loc := range cppOutOfLine.FindAllStringSubmatchIndex(text, -1) {
		owner := text[loc[2]:loc[3]]
		methods, ok := methodSets[owner]
		if !ok {
			// Declared in another file, typically the matching header.
			if a.known(owner) {
				a.applyCppUsage(owner, Body(text, loc[5]))
			}
			continue
		}
		method := text[loc[4]:loc[5]]
		if method != owner && !strings.HasPrefix(method, "~") {
			methods.add(method)
		}
		a.applyCppUsage(owner, Body(text, loc[5]))
	}

	for name, i := range byName {
		if fields, ok := fieldSets[name]; ok {
			records[i].Fields = fields.list()
			records[i].Methods = methodSets[name].list()
		}
	}

	return records, nil
}

// DetectRelationships resolves the candidates gathered so far against all classes.
func (a *CppAnalyzer) DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	return a.resolve(all)
}

// ExtractEndpoints returns nothing; no C or C++ web framework is recognized.
func (a *CppAnalyzer) ExtractEndpoints(string) ([]model.Endpoint, error) {
	return nil, nil
}

func (a *CppAnalyzer) mineMembers(owner, top string, fields, methods *memberSet) {
	for _, m := range cppField.FindAllStringSubmatch(top, -1) {
		typ, name := normalizeTypeName(m[1]), m[3]
		if cppKeywords[typ] || cppKeywords[name] || typ == "" {
			continue
		}
		fields.addField(name, typ)
		a.addEdge(owner, typ, model.Composition)
	}
	for _, m := range cppMethod.FindAllStringSubmatch(top, -1) {
		typ := strings.TrimSpace(strings.Trim(m[1], "*& \t"))
		name := m[2]
		if cppKeywords[typ] || cppKeywords[name] || name == owner || strings.HasPrefix(name, "~") {
			continue
		}
		methods.add(name)
	}
}

func (a *CppAnalyzer) applyCppUsage(owner, body string) {
	if body == "" {
		return
	}
	for _, m := range cppNew.FindAllStringSubmatch(body, -1) {
		a.addEdge(owner, normalizeTypeName(m[1]), model.Uses)
	}
	for _, re := range []*regexp.Regexp{cppScopeCall, cppMemberCall} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			if !cppUsageExcluded[m[1]] {
				a.addEdge(owner, m[1], model.Uses)
			}
		}
	}
}

func precededByEnum(text string, at int) bool {
	before := strings.TrimRight(text[:at], " \t\r\n")
	return strings.HasSuffix(before, "enum")
}

func cppLanguageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return "c"
	}
	return "cpp"
}

// stripCComments blanks comments using the C grammar. C++ input the grammar
// cannot parse cleanly falls back to a lexical scan.
func stripCComments(source []byte) string {
	if masked, ok := blankComments(cLanguage, source); ok {
		return string(masked)
	}
	return scanStripComments(source)
}

// scanStripComments blanks // and /* */ comments outside string and character literals.
func scanStripComments(source []byte) string {
	out := make([]byte, len(source))
	copy(out, source)

	blank := func(from, to int) {
		for k := from; k < to && k < len(out); k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	for i := 0; i < len(source); i++ {
		switch ch := source[i]; {
		case ch == '"' || ch == '\'':
			for i++; i < len(source) && source[i] != ch; i++ {
				if source[i] == '\\' {
					i++
				}
			}
		case ch == '/' && i+1 < len(source) && source[i+1] == '/':
			end := i
			for end < len(source) && source[end] != '\n' {
				end++
			}
			blank(i, end)
			i = end
		case ch == '/' && i+1 < len(source) && source[i+1] == '*':
			end := strings.Index(string(source[i+2:]), "*/")
			if end < 0 {
				blank(i, len(source))
				return string(out)
			}
			blank(i, i+2+end+2)
			i = i + 2 + end + 1
		}
	}
	return string(out)
}
