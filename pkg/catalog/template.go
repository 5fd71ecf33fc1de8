package catalog

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders operation statements with Sprig functions
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a statement template engine
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: sprig.TxtFuncMap(),
	}
}

// Render renders the operation statement with the resolved parameters.
// Templates see {{ .params.<name> }} plus {{ .operation.id }} and
// {{ .operation.name }}.
func (t *TemplateEngine) Render(op *Operation, params map[string]interface{}) (string, error) {
	tmpl, err := template.New("statement").Funcs(t.funcMap).Parse(op.Statement)
	if err != nil {
		return "", fmt.Errorf("failed to parse statement template: %w", err)
	}

	variables := map[string]interface{}{
		"params": params,
		"operation": map[string]interface{}{
			"id":   op.ID,
			"name": op.Name,
		},
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("failed to execute statement template: %w", err)
	}

	return buf.String(), nil
}
