package utils

import (
	"fmt"
	"strings"
)

// EscapeDoubleQuoted escapes s so it can be placed between double quotes in a
// C-family string literal (C#, C++, TypeScript, Go).
func EscapeDoubleQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

var xmlCommentReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeXMLComment escapes s for an XML doc comment. Every line after the first is
// prefixed with linePrefix (for example "        /// ").
func EscapeXMLComment(s, linePrefix string) string {
	return prefixLines(xmlCommentReplacer.Replace(s), linePrefix)
}

// EscapeBlockComment makes s safe inside a /* ... */ or JSDoc comment. Every line after
// the first is prefixed with linePrefix (for example "   * ").
func EscapeBlockComment(s, linePrefix string) string {
	return prefixLines(strings.ReplaceAll(s, "*/", "*\\/"), linePrefix)
}

// FormatLineComment renders s as a block of "//" comments, one per line, each line
// starting with indent.
func FormatLineComment(s, indent string) string {
	if s == "" {
		return ""
	}
	lines := splitLines(s)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			out = append(out, indent+"//")
		} else {
			out = append(out, indent+"// "+line)
		}
	}
	return strings.Join(out, "\n")
}

func prefixLines(s, prefix string) string {
	lines := splitLines(s)
	for i := 1; i < len(lines); i++ {
		lines[i] = prefix + strings.TrimLeft(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
