package parsers

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

var (
	tsImportFrom = regexp.MustCompile(`\bimport\s+(?:[\w$*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)
	tsRequire    = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	tsInterface  = regexp.MustCompile(`\binterface\s+([\w$]+)(?:\s*<[^{]*?>)?(?:\s+extends\s+([^{]+))?\s*\{`)
	tsClass      = regexp.MustCompile(`\b(abstract\s+)?class\s+([\w$]+)(?:\s*<[^{]*?>)?(?:\s+extends\s+([\w$.]+)(?:\s*<[^{]*?>)?)?(?:\s+implements\s+([^{]+))?\s*\{`)

	tsPropertySig = regexp.MustCompile(`(?m)^[ \t]*(?:readonly\s+)?([\w$]+)\??[ \t]*:[ \t]*([^;,\n]+)`)
	tsMethodSig   = regexp.MustCompile(`(?m)^[ \t]*([\w$]+)\??[ \t]*(?:<[^>(]*>)?\(`)

	tsMemberMods = `(?:(?:public|private|protected|readonly|static|declare|override|abstract|accessor)\s+)*`
	tsProperty   = regexp.MustCompile(`(?m)^[ \t]*` + tsMemberMods + `(#?[\w$]+)[?!]?[ \t]*(?::[ \t]*([^;=\n,]+?))?[ \t]*(?:=[^\n]*)?;?[ \t]*$`)
	tsMethod     = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|static|async|override|abstract|get|set)\s+)*\*?(#?[\w$]+)[ \t]*(?:<[^>(]*>)?[ \t]*\(`)
	tsConstructor = regexp.MustCompile(`\bconstructor\s*\(`)
	tsParamMods   = regexp.MustCompile(`^(?:(?:public|private|protected|readonly|override)\s+)+`)
	tsDecorator   = regexp.MustCompile(`@[\w$.]+(?:\([^)]*\))?\s*`)
)

var tsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "function": true,
	"return": true, "constructor": true, "super": true, "else": true, "do": true, "try": true,
	"new": true, "typeof": true, "await": true, "yield": true, "throw": true, "case": true,
	"break": true, "continue": true, "default": true, "delete": true,
}

// TypeScriptAnalyzer extracts classes and interfaces from TypeScript and
// JavaScript. Comments are blanked with the tree-sitter grammar before the
// pattern pass.
type TypeScriptAnalyzer struct {
	*state
}

// NewTypeScriptAnalyzer creates a TypeScript/JavaScript analyzer with empty state.
func NewTypeScriptAnalyzer() *TypeScriptAnalyzer {
	return &TypeScriptAnalyzer{state: newState("typescript", ".ts", ".tsx", ".js", ".jsx")}
}

// AnalyzeFile scans one TypeScript or JavaScript file.
func (a *TypeScriptAnalyzer) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	text := string(a.maskComments(path, source))
	language := tsLanguageFor(path)
	pkg := packageOrDefault(packageHint)

	for _, re := range []*regexp.Regexp{tsImportFrom, tsRequire} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			a.addImport(moduleSegment(m[1]))
		}
	}

	var records []model.ClassRecord

	// Interfaces first so a class can implement one declared later in the file.
	for _, loc := range tsInterface.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		a.register(name)

		rec := newRecord(name, language, pkg, path)
		rec.Stereotype = model.StereotypeInterface
		rec.Abstract = true

		if loc[4] >= 0 {
			for _, base := range splitTopLevel(stripGenerics(text[loc[4]:loc[5]]), ',') {
				a.addEdge(normalizeTypeName(base), name, model.Extends)
			}
		}

		top := TopLevel(Body(text, loc[3]))
		fields := newMemberSet()
		methods := newMemberSet()
		for _, m := range tsPropertySig.FindAllStringSubmatch(top, -1) {
			fields.addField(m[1], tsCleanType(m[2]))
		}
		for _, m := range tsMethodSig.FindAllStringSubmatch(top, -1) {
			if !tsKeywords[m[1]] {
				methods.add(m[1])
			}
		}
		rec.Fields = fields.list()
		rec.Methods = methods.list()
		records = append(records, rec)
	}

	for _, loc := range tsClass.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[4]:loc[5]]
		a.register(name)

		rec := newRecord(name, language, pkg, path)
		if loc[2] >= 0 {
			rec.Stereotype = model.StereotypeAbstract
			rec.Abstract = true
		}
		if loc[6] >= 0 {
			a.addEdge(normalizeTypeName(text[loc[6]:loc[7]]), name, model.Extends)
		}
		if loc[8] >= 0 {
			for _, iface := range splitTopLevel(stripGenerics(text[loc[8]:loc[9]]), ',') {
				a.addEdge(normalizeTypeName(iface), name, model.Implements)
			}
		}

		body := Body(text, loc[5])
		top := TopLevel(body)
		fields := newMemberSet()
		methods := newMemberSet()

		if ctor := tsConstructor.FindStringIndex(top); ctor != nil {
			if params, ok := parenContent(top, ctor[0]); ok {
				for _, param := range splitTopLevel(params, ',') {
					pname, ptype := tsParam(param)
					fields.addField(pname, ptype)
				}
			}
		}

		for _, m := range tsProperty.FindAllStringSubmatch(top, -1) {
			if tsKeywords[m[1]] {
				continue
			}
			fields.addField(m[1], tsCleanType(m[2]))
		}
		for _, m := range tsMethod.FindAllStringSubmatch(top, -1) {
			if !tsKeywords[m[1]] {
				methods.add(m[1])
			}
		}

		a.applyBodyHeuristics(name, body, typescriptBodyPatterns, fields)

		rec.Fields = fields.list()
		rec.Methods = methods.list()
		records = append(records, rec)
	}

	return records, nil
}

// DetectRelationships resolves the candidates gathered so far against all classes.
func (a *TypeScriptAnalyzer) DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	return a.resolve(all)
}

// ExtractEndpoints finds Express and NestJS routes.
func (a *TypeScriptAnalyzer) ExtractEndpoints(path string) ([]model.Endpoint, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return nodeEndpoints(string(a.maskComments(path, source)), path), nil
}

func (a *TypeScriptAnalyzer) maskComments(path string, source []byte) []byte {
	language := typescriptLanguage
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".tsx" || ext == ".jsx" {
		language = tsxLanguage
	}
	masked, _ := blankComments(language, source)
	return masked
}

func tsLanguageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx":
		return "javascript"
	}
	return "typescript"
}

// tsParam splits a constructor parameter into its name and declared type.
func tsParam(param string) (name, typ string) {
	param = tsDecorator.ReplaceAllString(param, "")
	param = tsParamMods.ReplaceAllString(strings.TrimSpace(param), "")
	if i := strings.IndexByte(param, '='); i >= 0 {
		param = param[:i]
	}
	name, typ, _ = strings.Cut(param, ":")
	name = strings.TrimSuffix(strings.TrimSpace(name), "?")
	name = strings.TrimPrefix(name, "...")
	if strings.ContainsAny(name, "{}[] ") {
		return "", ""
	}
	return name, tsCleanType(typ)
}

// tsCleanType reduces a type annotation to a simple name. Unions keep their first member.
func tsCleanType(typ string) string {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexByte(typ, '|'); i >= 0 {
		typ = typ[:i]
	}
	if strings.ContainsAny(typ, "({=") {
		return ""
	}
	return normalizeTypeName(typ)
}

// moduleSegment returns the first meaningful path segment of a module specifier.
func moduleSegment(specifier string) string {
	for _, seg := range strings.Split(specifier, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		return strings.TrimSuffix(seg, filepath.Ext(seg))
	}
	return ""
}
