package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/classmap/internal/model"
)

// JavaAnalyzer combines a grammar pass over declarations with a textual pass
// over each class body.
type JavaAnalyzer struct {
	*state
}

// NewJavaAnalyzer creates a Java analyzer with empty state.
func NewJavaAnalyzer() *JavaAnalyzer {
	return &JavaAnalyzer{state: newState("java", ".java")}
}

// AnalyzeFile parses one Java file.
func (j *JavaAnalyzer) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	st, err := parseSource(javaLanguage, source)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	root := st.root()
	if root.HasError() {
		return nil, fmt.Errorf("%w: syntax error in %s", ErrParse, path)
	}

	pkg := packageOrDefault(packageHint)
	text := string(source)
	var records []model.ClassRecord

	for _, child := range namedChildren(root) {
		switch child.Kind() {
		case "package_declaration":
			for _, id := range namedChildren(child) {
				if id.Kind() == "scoped_identifier" || id.Kind() == "identifier" {
					pkg = extractNodeText(id, source)
				}
			}
		case "import_declaration":
			for _, id := range namedChildren(child) {
				if id.Kind() == "scoped_identifier" || id.Kind() == "identifier" {
					j.addImport(firstSegment(extractNodeText(id, source), "."))
				}
			}
		}
	}

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration", "record_declaration":
			records = append(records, j.analyzeClass(n, source, text, pkg, path))
		case "interface_declaration":
			records = append(records, j.analyzeInterface(n, source, pkg, path))
		case "enum_declaration":
			records = append(records, j.analyzeEnum(n, source, pkg, path))
		}
		return true
	})

	return records, nil
}

// DetectRelationships resolves the candidates gathered so far against all classes.
func (j *JavaAnalyzer) DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	return j.resolve(all)
}

// ExtractEndpoints finds Spring request mappings.
func (j *JavaAnalyzer) ExtractEndpoints(path string) ([]model.Endpoint, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return springEndpoints(string(source), path), nil
}

func (j *JavaAnalyzer) analyzeClass(n *sitter.Node, source []byte, text, pkg, path string) model.ClassRecord {
	nameNode := n.ChildByFieldName("name")
	name := extractNodeText(nameNode, source)
	j.register(name)

	rec := newRecord(name, "java", pkg, path)
	fields := newMemberSet()
	methods := newMemberSet()

	if hasModifier(n, "abstract") {
		rec.Stereotype = model.StereotypeAbstract
		rec.Abstract = true
	}

	if super := n.ChildByFieldName("superclass"); super != nil {
		for _, t := range namedChildren(super) {
			j.addEdge(javaTypeName(t, source), name, model.Extends)
		}
	}
	for _, t := range typeListOf(n.ChildByFieldName("interfaces")) {
		j.addEdge(javaTypeName(t, source), name, model.Implements)
	}

	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		switch member.Kind() {
		case "field_declaration":
			typ := javaTypeName(member.ChildByFieldName("type"), source)
			for _, decl := range findChildrenByType(member, "variable_declarator") {
				fields.addField(extractNodeText(decl.ChildByFieldName("name"), source), typ)
			}
		case "method_declaration":
			j.analyzeMethod(member, name, source, methods)
		}
	}

	if nameNode != nil {
		j.applyBodyHeuristics(name, Body(text, int(nameNode.EndByte())), javaBodyPatterns, fields)
	}

	rec.Fields = fields.list()
	rec.Methods = methods.list()
	return rec
}

func (j *JavaAnalyzer) analyzeInterface(n *sitter.Node, source []byte, pkg, path string) model.ClassRecord {
	name := extractNodeText(n.ChildByFieldName("name"), source)
	j.register(name)

	rec := newRecord(name, "java", pkg, path)
	rec.Stereotype = model.StereotypeInterface
	rec.Abstract = true

	for _, t := range typeListOf(findChildByType(n, "extends_interfaces")) {
		j.addEdge(javaTypeName(t, source), name, model.Extends)
	}

	methods := newMemberSet()
	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		if member.Kind() == "method_declaration" {
			j.analyzeMethod(member, name, source, methods)
		}
	}
	rec.Methods = methods.list()
	return rec
}

func (j *JavaAnalyzer) analyzeEnum(n *sitter.Node, source []byte, pkg, path string) model.ClassRecord {
	name := extractNodeText(n.ChildByFieldName("name"), source)
	j.register(name)

	rec := newRecord(name, "java", pkg, path)
	rec.Stereotype = model.StereotypeEnum

	for _, t := range typeListOf(n.ChildByFieldName("interfaces")) {
		j.addEdge(javaTypeName(t, source), name, model.Implements)
	}

	methods := newMemberSet()
	if decls := findChildByType(n.ChildByFieldName("body"), "enum_body_declarations"); decls != nil {
		for _, member := range namedChildren(decls) {
			if member.Kind() == "method_declaration" {
				j.analyzeMethod(member, name, source, methods)
			}
		}
	}
	rec.Methods = methods.list()
	return rec
}

// analyzeMethod records the method name and a usage candidate for each parameter type.
func (j *JavaAnalyzer) analyzeMethod(m *sitter.Node, owner string, source []byte, methods *memberSet) {
	methods.add(extractNodeText(m.ChildByFieldName("name"), source))

	params := m.ChildByFieldName("parameters")
	for _, param := range namedChildren(params) {
		var typeNode *sitter.Node
		switch param.Kind() {
		case "formal_parameter":
			typeNode = param.ChildByFieldName("type")
		case "spread_parameter":
			for _, c := range namedChildren(param) {
				if c.Kind() != "modifiers" && c.Kind() != "variable_declarator" {
					typeNode = c
					break
				}
			}
		}
		if typ := javaTypeName(typeNode, source); typ != "" && !javaPrimitives[typ] {
			j.addEdge(owner, typ, model.Uses)
		}
	}
}

func hasModifier(n *sitter.Node, keyword string) bool {
	mods := findChildByType(n, "modifiers")
	if mods == nil {
		return false
	}
	for i := uint(0); i < mods.ChildCount(); i++ {
		if mods.Child(i).Kind() == keyword {
			return true
		}
	}
	return false
}

// typeListOf returns the types inside a super_interfaces or extends_interfaces node.
func typeListOf(n *sitter.Node) []*sitter.Node {
	list := findChildByType(n, "type_list")
	return namedChildren(list)
}

// javaTypeName reduces a type node to its simple name.
func javaTypeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "type_identifier", "integral_type", "floating_point_type", "boolean_type", "void_type":
		return extractNodeText(n, source)
	case "generic_type":
		for _, c := range namedChildren(n) {
			if c.Kind() == "type_identifier" || c.Kind() == "scoped_type_identifier" {
				return javaTypeName(c, source)
			}
		}
	case "scoped_type_identifier":
		ids := findChildrenByType(n, "type_identifier")
		if len(ids) > 0 {
			return extractNodeText(ids[len(ids)-1], source)
		}
	case "array_type":
		return javaTypeName(n.ChildByFieldName("element"), source)
	}
	return normalizeTypeName(strings.TrimSpace(extractNodeText(n, source)))
}
