package parsers

import (
	"regexp"
	"strings"
)

// matchSpan finds the first open delimiter at or after offset and returns the
// byte range [start, end] from it to its matching close delimiter. The scan is
// a single forward pass with a depth counter. ok is false when no open
// delimiter exists or the input ends before depth returns to zero.
func matchSpan(src string, offset int, open, close byte) (start, end int, ok bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(src) {
		return 0, 0, false
	}

	rel := strings.IndexByte(src[offset:], open)
	if rel < 0 {
		return 0, 0, false
	}
	start = offset + rel

	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return start, i, true
			}
		}
	}
	return 0, 0, false
}

// BraceSpan returns the offsets of the first '{' at or after offset and its matching '}'.
func BraceSpan(src string, offset int) (start, end int, ok bool) {
	return matchSpan(src, offset, '{', '}')
}

// Body returns the text of the declaration body that begins at the first '{'
// at or after offset, braces included. An unbalanced body yields "".
func Body(src string, offset int) string {
	start, end, ok := BraceSpan(src, offset)
	if !ok {
		return ""
	}
	return src[start : end+1]
}

// TopLevel returns the inside of body, without its outer braces, with the
// contents of every nested brace block replaced by spaces. Only the direct
// members of the declaration remain. Newlines are kept so line-anchored
// patterns still apply.
func TopLevel(body string) string {
	if len(body) < 2 || body[0] != '{' {
		return ""
	}

	out := []byte(body)
	i := 1
	for i < len(body)-1 {
		next := strings.IndexByte(body[i:len(body)-1], '{')
		if next < 0 {
			break
		}
		start, end, ok := BraceSpan(body, i+next)
		if !ok || end >= len(body)-1 {
			break
		}
		for j := start + 1; j < end; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
		i = end + 1
	}
	return string(out[1 : len(out)-1])
}

// blankNestedTypes returns body with every nested declaration matched by decl
// replaced by spaces, from its header through its closing brace. decl must
// end at the declaration's opening '{'. Newlines are kept.
func blankNestedTypes(body string, decl *regexp.Regexp) string {
	if decl == nil {
		return body
	}
	var out []byte
	done := 0
	for _, loc := range decl.FindAllStringIndex(body, -1) {
		if loc[0] < done {
			continue
		}
		_, end, ok := BraceSpan(body, loc[1]-1)
		if !ok {
			break
		}
		if out == nil {
			out = []byte(body)
		}
		for j := loc[0]; j <= end; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
		done = end + 1
	}
	if out == nil {
		return body
	}
	return string(out)
}

// parenContent returns the text between the first '(' at or after offset and its matching ')'.
func parenContent(src string, offset int) (string, bool) {
	start, end, ok := matchSpan(src, offset, '(', ')')
	if !ok {
		return "", false
	}
	return src[start+1 : end], true
}
