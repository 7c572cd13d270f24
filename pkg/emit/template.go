package emit

import (
	"bytes"
	"fmt"
	"io/fs"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Renderer executes embedded templates into a FileSet. Every template sees the sprig
// function map plus the backend's own functions, which win on name clashes.
type Renderer struct {
	templates fs.FS
	funcs     template.FuncMap
	// Format post-processes rendered output, e.g. go/format for Go sources. Optional.
	Format func(path string, data []byte) ([]byte, error)
}

// NewRenderer creates a renderer reading templates from the "templates" directory of fsys
func NewRenderer(fsys fs.FS, funcs template.FuncMap) *Renderer {
	merged := sprig.TxtFuncMap()
	for k, v := range funcs {
		merged[k] = v
	}
	return &Renderer{templates: fsys, funcs: merged}
}

// Render renders templateName with data and records the result under targetPath
func (r *Renderer) Render(files *FileSet, templateName, targetPath string, data any) error {
	tmplContent, err := fs.ReadFile(r.templates, "templates/"+templateName)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Funcs(r.funcs).Parse(string(tmplContent))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	out := buf.Bytes()
	if r.Format != nil {
		if out, err = r.Format(targetPath, out); err != nil {
			return fmt.Errorf("failed to format %s: %w", targetPath, err)
		}
	}
	return files.Add(targetPath, out)
}
