package parsers

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for brace matching:
// - Body returns the first balanced block after the offset, braces included
// - Body skips text before the offset
// - Unbalanced or brace-free input yields an empty body
// - Deep nesting is handled without recursion
// - TopLevel blanks nested blocks and drops the outer braces
// - blankNestedTypes blanks nested declarations and keeps everything else
// - parenContent returns the text inside balanced parentheses

func TestBody(t *testing.T) {
	t.Parallel()

	src := "class A { int x; { } } tail { other }"
	assert.Equal(t, "{ int x; { } }", Body(src, 0))
	assert.Equal(t, "{ other }", Body(src, strings.Index(src, "tail")))
	assert.Equal(t, "", Body("class A {", 0))
	assert.Equal(t, "", Body("no braces here", 0))
	assert.Equal(t, "", Body("{}", 5))
}

func TestBody_DeepNesting(t *testing.T) {
	t.Parallel()

	const depth = 100000
	src := strings.Repeat("{", depth) + strings.Repeat("}", depth)
	assert.Equal(t, src, Body(src, 0))
}

func TestTopLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, " a; void f() {    } b; ", TopLevel("{ a; void f() { x; } b; }"))
	assert.Equal(t, "\n  int x;\n  void g() {\n   }\n", TopLevel("{\n  int x;\n  void g() {\n x;}\n}"))
	assert.Equal(t, "", TopLevel(""))
}

func TestBlankNestedTypes(t *testing.T) {
	t.Parallel()

	decl := regexp.MustCompile(`\bclass\s+\w+[^;{]*\{`)
	nested := "class In { x(); }"
	body := "{ go(); " + nested + "\n y(); }"

	assert.Equal(t, "{ go(); "+strings.Repeat(" ", len(nested))+"\n y(); }", blankNestedTypes(body, decl))
	assert.Equal(t, "{ go(); }", blankNestedTypes("{ go(); }", decl))
	assert.Equal(t, body, blankNestedTypes(body, nil))
}

func TestParenContent(t *testing.T) {
	t.Parallel()

	got, ok := parenContent("constructor(a: A, b = f(1)) {}", 0)
	assert.True(t, ok)
	assert.Equal(t, "a: A, b = f(1)", got)

	_, ok = parenContent("constructor(a", 0)
	assert.False(t, ok)
}

func TestNormalizeTypeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Engine", normalizeTypeName("com.acme.Engine"))
	assert.Equal(t, "List", normalizeTypeName("List<Engine>"))
	assert.Equal(t, "string", normalizeTypeName("std::string"))
	assert.Equal(t, "Engine", normalizeTypeName("Engine[]"))
	assert.Equal(t, "Engine", normalizeTypeName(" Engine* "))
}
