package golang

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"

	"golang.org/x/tools/imports"
)

// formatSource fixes the imports of a generated file and formats it. goimports resolves
// the standard library on its own; the SDK's packages and the websocket module do not
// exist on disk yet, so they are offered in known (package name -> import path) and
// goimports drops the ones the file never uses.
func formatSource(filename string, src []byte, known map[string]string) ([]byte, error) {
	if len(known) > 0 {
		var err error
		if src, err = offerImports(filename, src, known); err != nil {
			return nil, err
		}
	}
	return imports.Process(filename, src, nil)
}

// offerImports inserts an import of every known package right after the package clause
func offerImports(filename string, src []byte, known map[string]string) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return known[names[i]] < known[names[j]] })

	var block bytes.Buffer
	block.WriteString("\nimport (\n")
	for _, name := range names {
		// named, so goimports never has to locate the package to learn its name
		fmt.Fprintf(&block, "\t%s %s\n", name, strconv.Quote(known[name]))
	}
	block.WriteString(")\n")

	end := fset.Position(file.Name.End()).Offset
	out := make([]byte, 0, len(src)+block.Len()+1)
	out = append(out, src[:end]...)
	out = append(out, '\n')
	out = append(out, block.Bytes()...)
	out = append(out, src[end:]...)
	return out, nil
}
