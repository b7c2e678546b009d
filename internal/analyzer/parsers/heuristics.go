package parsers

import (
	"regexp"

	"github.com/mvp-joe/classmap/internal/model"
)

// bodyPatterns holds the instance-assignment and usage patterns applied to a
// class body by the textual analyzers. Identifier classes differ per language.
type bodyPatterns struct {
	thisNew    *regexp.Regexp // this.f = new X(
	thisAssign *regexp.Regexp // this.f = expr
	newCall    *regexp.Regexp // new X(
	staticCall *regexp.Regexp // X.m(
	localDecl  *regexp.Regexp // X v = / X v;
	nested     *regexp.Regexp // header of a nested type declaration, through '{'

	staticExcluded map[string]bool
	localExcluded  map[string]bool
}

var javaPrimitives = map[string]bool{
	"int": true, "long": true, "float": true, "double": true, "boolean": true,
	"char": true, "byte": true, "short": true, "String": true, "void": true,
}

var javaBodyPatterns = &bodyPatterns{
	thisNew:        regexp.MustCompile(`this\.(\w+)\s*=\s*new\s+([\w.]+)\s*(?:<[^>]*>)?\s*\(`),
	newCall:        regexp.MustCompile(`\bnew\s+([\w.]+)\s*(?:<[^>]*>)?\s*\(`),
	staticCall:     regexp.MustCompile(`\b([A-Z]\w*)\.\w+\s*\(`),
	localDecl:      regexp.MustCompile(`\b([A-Z]\w*)(?:<[^;=(){}]*>)?\s+[a-z_]\w*\s*[=;]`),
	nested:         regexp.MustCompile(`\b(?:class|interface|enum|record)\s+\w+[^;{]*\{`),
	staticExcluded: map[string]bool{"this": true, "super": true},
	localExcluded:  javaPrimitives,
}

var csharpBodyPatterns = &bodyPatterns{
	thisNew:    regexp.MustCompile(`this\.(\w+)\s*=\s*new\s+([\w.]+)\s*(?:<[^>]*>)?\s*\(`),
	thisAssign: regexp.MustCompile(`this\.(\w+)\s*=\s*[^=;][^;]*;`),
	newCall:    regexp.MustCompile(`\bnew\s+([\w.]+)\s*(?:<[^>]*>)?\s*\(`),
	staticCall: regexp.MustCompile(`\b([A-Z]\w*)\.\w+\s*\(`),
	localDecl:  regexp.MustCompile(`\b([A-Z]\w*)(?:<[^;=(){}]*>)?\s+[a-z_]\w*\s*[=;]`),
	nested:     regexp.MustCompile(`\b(?:class|struct|record|interface)\s+\w+[^;{]*\{`),
	staticExcluded: map[string]bool{
		"this": true, "base": true, "Console": true, "Math": true, "String": true, "Task": true,
	},
	localExcluded: map[string]bool{
		"String": true, "Int32": true, "Int64": true, "Boolean": true, "Double": true, "Object": true,
	},
}

var typescriptBodyPatterns = &bodyPatterns{
	thisNew:    regexp.MustCompile(`this\.([\w$]+)\s*=\s*new\s+([\w$.]+)\s*(?:<[^>]*>)?\s*\(`),
	thisAssign: regexp.MustCompile(`this\.([\w$]+)\s*=\s*[^=\s]`),
	newCall:    regexp.MustCompile(`\bnew\s+([\w$.]+)\s*(?:<[^>]*>)?\s*\(`),
	staticCall: regexp.MustCompile(`(?:^|[^\w$.])(\$?[A-Z][\w$]*)\.[\w$]+\s*\(`),
	nested:     regexp.MustCompile(`\bclass\s+[\w$]+[^;{]*\{`),
	staticExcluded: map[string]bool{
		"this": true, "super": true, "console": true, "Math": true, "Date": true,
		"JSON": true, "Object": true, "Array": true, "Promise": true,
	},
}

// applyBodyHeuristics scans a class body and records composition and usage
// candidates for owner. Fields discovered through instance assignment are
// added to fields. Nested type declarations are left to their own records.
func (s *state) applyBodyHeuristics(owner, body string, pats *bodyPatterns, fields *memberSet) {
	if body == "" {
		return
	}
	body = blankNestedTypes(body, pats.nested)

	for _, m := range pats.thisNew.FindAllStringSubmatch(body, -1) {
		typ := normalizeTypeName(m[2])
		fields.addField(m[1], typ)
		s.addEdge(owner, typ, model.Composition)
	}

	if pats.thisAssign != nil {
		for _, m := range pats.thisAssign.FindAllStringSubmatch(body, -1) {
			fields.addField(m[1], "")
		}
	}

	for _, m := range pats.newCall.FindAllStringSubmatch(body, -1) {
		s.addEdge(owner, normalizeTypeName(m[1]), model.Uses)
	}

	for _, m := range pats.staticCall.FindAllStringSubmatch(body, -1) {
		if !pats.staticExcluded[m[1]] {
			s.addEdge(owner, m[1], model.Uses)
		}
	}

	if pats.localDecl != nil {
		for _, m := range pats.localDecl.FindAllStringSubmatch(body, -1) {
			if !pats.localExcluded[m[1]] {
				s.addEdge(owner, m[1], model.Uses)
			}
		}
	}
}
