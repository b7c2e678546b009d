package parsers

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

var (
	csNamespace = regexp.MustCompile(`\bnamespace\s+([\w.]+)`)
	csUsing     = regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?([\w.]+)\s*;`)
	csClass     = regexp.MustCompile(`\b((?:(?:public|private|protected|internal|abstract|sealed|static|partial|readonly)\s+)*)(class|struct|record)\s+(\w+)(?:\s*<[^>{]*>)?\s*(?::\s*([^{]+))?(?:where\b[^{]*)?\{`)
	csInterface = regexp.MustCompile(`\binterface\s+(\w+)(?:\s*<[^>{]*>)?\s*(?::\s*([^{]+))?(?:where\b[^{]*)?\{`)
	csWhere     = regexp.MustCompile(`(?s)\bwhere\b.*`)
	csIface     = regexp.MustCompile(`^I[A-Z]`)

	csModifiers = `(?:(?:public|private|protected|internal|static|readonly|const|volatile|required|new)\s+)*`
	csField     = regexp.MustCompile(`(?m)^[ \t]*` + csModifiers + `([A-Za-z_][\w.]*(?:<[^;=(){}]*>)?(?:\[\])?\??)[ \t]+([A-Za-z_]\w*)[ \t]*(?:=[^;]*)?;`)
	csProperty  = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|internal|static|virtual|override|abstract|required|new)\s+)*([A-Za-z_][\w.]*(?:<[^;=(){}]*>)?(?:\[\])?\??)[ \t]+([A-Za-z_]\w*)[ \t]*\{`)
	csMethod    = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|private|protected|internal|static|virtual|override|abstract|async|sealed|extern|new|partial|unsafe)\s+)*([\w.<>,\[\]?]+)\s+(\w+)\s*(?:<[^>(]*>)?\s*\(`)
)

var csControlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "try": true, "catch": true,
	"foreach": true, "using": true, "lock": true, "return": true, "throw": true,
}

var csNotAType = map[string]bool{
	"new": true, "return": true, "throw": true, "await": true, "else": true, "var": true,
	"public": true, "private": true, "protected": true, "internal": true, "static": true,
	"class": true, "struct": true, "interface": true, "enum": true, "record": true,
	"namespace": true, "using": true, "goto": true, "yield": true, "case": true,
	"abstract": true, "virtual": true, "override": true, "async": true, "sealed": true,
	"readonly": true, "const": true, "event": true, "delegate": true, "operator": true,
}

// CSharpAnalyzer extracts classes from C# using patterns and brace matching.
type CSharpAnalyzer struct {
	*state
}

// NewCSharpAnalyzer creates a C# analyzer with empty state.
func NewCSharpAnalyzer() *CSharpAnalyzer {
	return &CSharpAnalyzer{state: newState("csharp", ".cs")}
}

// AnalyzeFile scans one C# file.
func (a *CSharpAnalyzer) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	text := string(source)

	pkg := packageOrDefault(packageHint)
	if m := csNamespace.FindStringSubmatch(text); m != nil {
		pkg = m[1]
	}
	for _, m := range csUsing.FindAllStringSubmatch(text, -1) {
		a.addImport(firstSegment(m[1], "."))
	}

	var records []model.ClassRecord

	for _, loc := range csInterface.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		a.register(name)

		rec := newRecord(name, "csharp", pkg, path)
		rec.Stereotype = model.StereotypeInterface
		rec.Abstract = true
		if loc[4] >= 0 {
			for _, base := range csBaseNames(text[loc[4]:loc[5]]) {
				a.addEdge(base, name, model.Extends)
			}
		}

		methods := newMemberSet()
		for _, m := range csMethod.FindAllStringSubmatch(TopLevel(Body(text, loc[3])), -1) {
			if csIsMethod(m[1], m[2]) {
				methods.add(m[2])
			}
		}
		rec.Methods = methods.list()
		records = append(records, rec)
	}

	for _, loc := range csClass.FindAllStringSubmatchIndex(text, -1) {
		modifiers := text[loc[2]:loc[3]]
		kind := text[loc[4]:loc[5]]
		name := text[loc[6]:loc[7]]
		a.register(name)

		rec := newRecord(name, "csharp", pkg, path)
		switch {
		case kind == "struct":
			rec.Stereotype = model.StereotypeStruct
		case strings.Contains(modifiers, "abstract"):
			rec.Stereotype = model.StereotypeAbstract
			rec.Abstract = true
		}

		if loc[8] >= 0 {
			for _, base := range csBaseNames(text[loc[8]:loc[9]]) {
				if csIface.MatchString(base) {
					a.addEdge(base, name, model.Implements)
				} else {
					a.addEdge(base, name, model.Extends)
				}
			}
		}

		body := Body(text, loc[7])
		top := TopLevel(body)
		fields := newMemberSet()
		methods := newMemberSet()

		for _, m := range csField.FindAllStringSubmatch(top, -1) {
			if csNotAType[m[1]] || csNotAType[m[2]] {
				continue
			}
			typ := normalizeTypeName(m[1])
			fields.addField(m[2], typ)
			a.addEdge(name, typ, model.Composition)
		}
		for _, m := range csProperty.FindAllStringSubmatch(top, -1) {
			if csNotAType[m[1]] || csNotAType[m[2]] {
				continue
			}
			fields.addField(m[2], normalizeTypeName(m[1]))
		}
		for _, m := range csMethod.FindAllStringSubmatch(top, -1) {
			if csIsMethod(m[1], m[2]) && m[2] != name {
				methods.add(m[2])
			}
		}

		a.applyBodyHeuristics(name, body, csharpBodyPatterns, fields)

		rec.Fields = fields.list()
		rec.Methods = methods.list()
		records = append(records, rec)
	}

	return records, nil
}

// DetectRelationships resolves the candidates gathered so far against all classes.
func (a *CSharpAnalyzer) DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	return a.resolve(all)
}

// ExtractEndpoints finds ASP.NET route attributes.
func (a *CSharpAnalyzer) ExtractEndpoints(path string) ([]model.Endpoint, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return aspnetEndpoints(string(source), path), nil
}

func csIsMethod(returnType, name string) bool {
	return !csControlKeywords[name] && !csNotAType[returnType]
}

// csBaseNames splits a base list into simple type names.
func csBaseNames(list string) []string {
	list = csWhere.ReplaceAllString(list, "")
	list = stripGenerics(list)

	var out []string
	for _, part := range strings.Split(list, ",") {
		if name := normalizeTypeName(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
