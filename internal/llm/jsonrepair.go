package llm

import (
	"regexp"
	"strings"
)

// Fence and repair patterns compiled once.
var (
	fencePatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```json\\s*(.*?)```"),
		regexp.MustCompile("(?s)```\\s*(.*?)```"),
		regexp.MustCompile("(?s)`(\\{.*?\\})`"),
		regexp.MustCompile("(?s)`(\\[.*?\\])`"),
	}
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyPattern   = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
)

// ExtractJSON pulls the JSON document out of conversational model output.
// It tries markdown code fences first, then falls back to the outermost
// object or array delimiters, whichever opens first. Content without any
// recognizable JSON comes back unchanged.
func ExtractJSON(content string) string {
	for _, pattern := range fencePatterns {
		if matches := pattern.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")

	start, closing := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closing = arrStart, "]"
	}
	if start == -1 {
		return content
	}
	end := strings.LastIndex(content, closing)
	if end <= start {
		return content
	}
	return content[start : end+1]
}

// RepairJSON fixes the syntax errors models most often introduce: trailing
// commas, unbalanced closers, unquoted keys, single-quoted documents, and
// a leading BOM. The result is best-effort; callers re-parse and fall back
// when it still fails.
func RepairJSON(content string) string {
	repaired := strings.TrimPrefix(content, "\uFEFF")
	repaired = strings.TrimSpace(repaired)

	repaired = trailingCommaPattern.ReplaceAllString(repaired, "$1")
	repaired = unquotedKeyPattern.ReplaceAllString(repaired, `$1"$2":`)

	if !strings.Contains(repaired, `"`) && strings.Contains(repaired, `'`) {
		repaired = strings.ReplaceAll(repaired, `'`, `"`)
	}

	return balanceClosers(repaired)
}

// balanceClosers appends the closers for unterminated strings and any
// unclosed braces or brackets, innermost first. Delimiters inside string
// literals do not count.
func balanceClosers(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
