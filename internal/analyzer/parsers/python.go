package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/classmap/internal/model"
)

var abcMarkers = map[string]bool{"ABC": true, "ABCMeta": true}

// PythonAnalyzer extracts classes by walking the full Python syntax tree.
type PythonAnalyzer struct {
	*state
}

// NewPythonAnalyzer creates a Python analyzer with empty state.
func NewPythonAnalyzer() *PythonAnalyzer {
	return &PythonAnalyzer{state: newState("python", ".py")}
}

// AnalyzeFile parses one Python file. A file with syntax errors yields no records.
func (p *PythonAnalyzer) AnalyzeFile(path, packageHint string) ([]model.ClassRecord, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	st, err := parseSource(pythonLanguage, source)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	root := st.root()
	if root.HasError() {
		return nil, fmt.Errorf("%w: syntax error in %s", ErrParse, path)
	}

	pkg := packageOrDefault(packageHint)
	var records []model.ClassRecord

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			p.collectImport(n, source)
			return false
		case "class_definition":
			records = append(records, p.analyzeClass(n, source, pkg, path))
		}
		return true
	})

	return records, nil
}

// DetectRelationships resolves the candidates gathered so far against all classes.
func (p *PythonAnalyzer) DetectRelationships(all []model.ClassRecord) []model.RelationshipEdge {
	return p.resolve(all)
}

// ExtractEndpoints finds Flask, FastAPI and Django routes.
func (p *PythonAnalyzer) ExtractEndpoints(path string) ([]model.Endpoint, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return pythonEndpoints(string(source), path), nil
}

func (p *PythonAnalyzer) collectImport(n *sitter.Node, source []byte) {
	if n.Kind() == "import_from_statement" {
		if mod := n.ChildByFieldName("module_name"); mod != nil && mod.Kind() == "dotted_name" {
			p.addImport(firstSegment(extractNodeText(mod, source), "."))
		}
		return
	}
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "dotted_name":
			p.addImport(firstSegment(extractNodeText(child, source), "."))
		case "aliased_import":
			p.addImport(firstSegment(extractNodeText(child.ChildByFieldName("name"), source), "."))
		}
	}
}

func (p *PythonAnalyzer) analyzeClass(n *sitter.Node, source []byte, pkg, path string) model.ClassRecord {
	name := extractNodeText(n.ChildByFieldName("name"), source)
	p.register(name)

	rec := newRecord(name, "python", pkg, path)
	fields := newMemberSet()
	methods := newMemberSet()
	abstract := false

	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		for _, base := range namedChildren(bases) {
			if base.Kind() == "keyword_argument" {
				if extractNodeText(base.ChildByFieldName("name"), source) == "metaclass" &&
					abcMarkers[pythonExprName(base.ChildByFieldName("value"), source)] {
					abstract = true
				}
				continue
			}
			baseName := pythonExprName(base, source)
			if baseName == "" {
				continue
			}
			if abcMarkers[baseName] {
				abstract = true
			}
			p.addEdge(baseName, name, model.Extends)
		}
	}

	body := n.ChildByFieldName("body")
	for _, stmt := range namedChildren(body) {
		switch stmt.Kind() {
		case "expression_statement":
			for _, expr := range namedChildren(stmt) {
				if expr.Kind() == "assignment" {
					p.classLevelField(expr, source, fields)
				}
			}
		case "function_definition":
			p.analyzeMethod(stmt, name, source, fields, methods)
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil || def.Kind() != "function_definition" {
				continue
			}
			if hasAbstractDecorator(stmt, source) {
				abstract = true
			}
			p.analyzeMethod(def, name, source, fields, methods)
		}
	}

	rec.Fields = fields.list()
	rec.Methods = methods.list()
	if abstract {
		rec.Stereotype = model.StereotypeAbstract
		rec.Abstract = true
	}
	return rec
}

func (p *PythonAnalyzer) classLevelField(assign *sitter.Node, source []byte, fields *memberSet) {
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	typ := ""
	if t := assign.ChildByFieldName("type"); t != nil {
		typ = pythonTypeName(t, source)
	}
	fields.addField(extractNodeText(left, source), typ)
}

// analyzeMethod records the method name, discovers self.<attr> fields anywhere
// in its body, and collects composition and usage candidates.
func (p *PythonAnalyzer) analyzeMethod(fn *sitter.Node, owner string, source []byte, fields, methods *memberSet) {
	methods.add(extractNodeText(fn.ChildByFieldName("name"), source))

	body := fn.ChildByFieldName("body")
	if body == nil {
		return
	}

	captured := make(map[uint]bool)

	walkTree(body, func(n *sitter.Node) bool {
		if n.Kind() != "assignment" {
			return true
		}
		left := n.ChildByFieldName("left")
		if left == nil || left.Kind() != "attribute" {
			return true
		}
		obj := left.ChildByFieldName("object")
		if obj == nil || extractNodeText(obj, source) != "self" {
			return true
		}

		attr := extractNodeText(left.ChildByFieldName("attribute"), source)
		typ := ""
		if t := n.ChildByFieldName("type"); t != nil {
			typ = pythonTypeName(t, source)
		}
		fields.addField(attr, typ)

		if right := n.ChildByFieldName("right"); right != nil && right.Kind() == "call" {
			callee := pythonExprName(right.ChildByFieldName("function"), source)
			if callee != "" && callee != owner {
				p.addEdge(owner, callee, model.Composition)
				captured[right.StartByte()] = true
			}
		}
		return true
	})

	walkTree(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "parameters", "lambda_parameters":
			return false
		case "call":
			if !captured[n.StartByte()] {
				if fnNode := n.ChildByFieldName("function"); fnNode != nil && fnNode.Kind() == "identifier" {
					p.addEdge(owner, extractNodeText(fnNode, source), model.Uses)
				}
			}
		case "identifier":
			// A captured call shares its start byte with its callee name.
			if !captured[n.StartByte()] && pythonIsReference(n) {
				p.addEdge(owner, extractNodeText(n, source), model.Uses)
			}
		}
		return true
	})
}

// pythonIsReference reports whether an identifier is a bare name reference
// rather than an attribute name, keyword name, or definition name.
func pythonIsReference(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	switch parent.Kind() {
	case "attribute":
		if attr := parent.ChildByFieldName("attribute"); attr != nil && attr.StartByte() == n.StartByte() {
			return false
		}
	case "keyword_argument", "function_definition", "class_definition":
		if name := parent.ChildByFieldName("name"); name != nil && name.StartByte() == n.StartByte() {
			return false
		}
	}
	return true
}

func hasAbstractDecorator(decorated *sitter.Node, source []byte) bool {
	for _, dec := range findChildrenByType(decorated, "decorator") {
		text := strings.TrimSpace(strings.TrimPrefix(extractNodeText(dec, source), "@"))
		if i := strings.IndexByte(text, '('); i >= 0 {
			text = text[:i]
		}
		if text == "abstractmethod" || strings.HasSuffix(text, ".abstractmethod") {
			return true
		}
	}
	return false
}

// pythonExprName names a base-class or callee expression: identifiers by
// their text, attributes by their final attribute, subscripts by their value.
func pythonExprName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "identifier":
		return extractNodeText(n, source)
	case "attribute":
		return extractNodeText(n.ChildByFieldName("attribute"), source)
	case "subscript":
		return pythonExprName(n.ChildByFieldName("value"), source)
	}
	return ""
}

// pythonTypeName renders an annotation as a simple type name.
func pythonTypeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return "Any"
	}
	switch n.Kind() {
	case "type":
		if inner := namedChildren(n); len(inner) > 0 {
			return pythonTypeName(inner[0], source)
		}
		return strings.TrimSpace(extractNodeText(n, source))
	case "identifier", "attribute":
		return extractNodeText(n, source)
	case "subscript":
		return pythonTypeName(n.ChildByFieldName("value"), source)
	case "generic_type":
		if id := findChildByType(n, "identifier"); id != nil {
			return extractNodeText(id, source)
		}
	case "string":
		return strings.Trim(extractNodeText(n, source), `"'`)
	case "none":
		return "None"
	}
	return "Any"
}
