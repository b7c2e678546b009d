package parsers

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	pythonLanguage     = sitter.NewLanguage(python.Language())
	javaLanguage       = sitter.NewLanguage(java.Language())
	typescriptLanguage = sitter.NewLanguage(typescript.LanguageTypescript())
	tsxLanguage        = sitter.NewLanguage(typescript.LanguageTSX())
	cLanguage          = sitter.NewLanguage(c.Language())
)

// syntaxTree owns a parsed tree and the parser that produced it.
type syntaxTree struct {
	parser *sitter.Parser
	tree   *sitter.Tree
}

// parseSource parses source with the given grammar. Callers must Close the result.
func parseSource(language *sitter.Language, source []byte) (*syntaxTree, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		parser.Close()
		return nil, fmt.Errorf("%w: parser returned no tree", ErrParse)
	}
	return &syntaxTree{parser: parser, tree: tree}, nil
}

func (t *syntaxTree) root() *sitter.Node { return t.tree.RootNode() }

func (t *syntaxTree) Close() {
	t.tree.Close()
	t.parser.Close()
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
// Returning false from the visitor skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// namedChildren returns the named children of node.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// blankComments parses source with language and returns a copy in which every
// comment node is replaced by spaces, newlines preserved. ok is false when the
// grammar could not produce an error-free tree.
func blankComments(language *sitter.Language, source []byte) (masked []byte, ok bool) {
	st, err := parseSource(language, source)
	if err != nil {
		return source, false
	}
	defer st.Close()

	root := st.root()
	masked = make([]byte, len(source))
	copy(masked, source)

	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() == "comment" {
			for i := n.StartByte(); i < n.EndByte(); i++ {
				if masked[i] != '\n' {
					masked[i] = ' '
				}
			}
			return false
		}
		return true
	})
	return masked, !root.HasError()
}
