package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum     = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonIdentChar = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SplitWords splits a string into words. Separators are any non-alphanumeric character,
// and each separated part is further split on camelCase/PascalCase boundaries.
func SplitWords(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = RemoveAccents(s)

	var words []string
	for _, part := range nonAlnum.Split(s, -1) {
		if part == "" {
			continue
		}
		words = append(words, SplitCamelCase(part)...)
	}
	return words
}

// SplitCamelCase splits a camelCase or PascalCase string into words.
// Runs of capitals are kept together: "XMLHttp" -> "XML", "Http".
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	rs := []rune(s)
	for i, r := range rs {
		isNewWord := false
		if i > 0 && isUppercase(r) {
			if !isUppercase(rs[i-1]) {
				isNewWord = true
			} else if i < len(rs)-1 && isLowercase(rs[i+1]) {
				isNewWord = true
			}
		}

		if isNewWord && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isUppercase(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isLowercase(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// capitalize upper-cases the first letter and lower-cases the rest of a word
func capitalize(w string) string {
	if len(w) <= 1 {
		return strings.ToUpper(w)
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

// ToPascalCase converts a string to PascalCase
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range SplitWords(s) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase
func ToCamelCase(s string) string {
	p := ToPascalCase(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	return joinLower(SplitWords(s), "_")
}

// ToKebabCase converts a string to kebab-case
func ToKebabCase(s string) string {
	return joinLower(SplitWords(s), "-")
}

func joinLower(words []string, sep string) string {
	if len(words) == 0 {
		return ""
	}
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return strings.Join(out, sep)
}

// SanitizeIdentifier replaces every character that cannot appear in a C-family identifier
// with an underscore and makes sure the result does not start with a digit.
func SanitizeIdentifier(s string) string {
	s = nonIdentChar.ReplaceAllString(RemoveAccents(s), "_")
	if s == "" {
		return "_"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// NormalizeProtocolName turns a WebSocket protocol message id such as
// "lobby/member-joined" into an identifier fragment ("LobbyMemberJoined").
func NormalizeProtocolName(protocolMessageID string) string {
	name := ToPascalCase(protocolMessageID)
	if name == "" {
		return "Message"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "M" + name
	}
	return name
}
