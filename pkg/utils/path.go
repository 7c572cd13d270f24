package utils

import "strings"

// PathSegment is a piece of an HTTP path template: literal text or a {parameter}
type PathSegment struct {
	Literal string
	Param   string
}

// SplitPathTemplate splits "/lobby/{id}/join" into literal and parameter segments.
// An unterminated brace is kept as literal text.
func SplitPathTemplate(path string) []PathSegment {
	var out []PathSegment
	for path != "" {
		open := strings.IndexByte(path, '{')
		if open == -1 {
			out = append(out, PathSegment{Literal: path})
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end == -1 {
			out = append(out, PathSegment{Literal: path})
			break
		}
		if open > 0 {
			out = append(out, PathSegment{Literal: path[:open]})
		}
		out = append(out, PathSegment{Param: path[open+1 : open+end]})
		path = path[open+end+1:]
	}
	return out
}
