package catalog

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// statementSources lists the sources that execute a rendered statement and so
// require one in the definition.
//
//nolint:gochecknoglobals // Static lookup table
var statementSources = map[string]bool{
	"warehouse": true,
}

// Parameter declares one named operation parameter
type Parameter struct {
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type"`
	Required bool        `yaml:"required"`
	Default  interface{} `yaml:"default"`
}

// Operation is one catalog-registered data operation
type Operation struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Source      string      `yaml:"source"`
	Statement   string      `yaml:"statement"`
	CacheTTLMs  int         `yaml:"cacheTtlMs"`
	Parameters  []Parameter `yaml:"parameters"`

	// SheetHint and TableHint are the default materialization target
	SheetHint string `yaml:"sheetHint"`
	TableHint string `yaml:"tableHint"`
}

// TTL returns the operation cache TTL, or 0 when the operation defers to the
// store default.
func (o *Operation) TTL() time.Duration {
	if o.CacheTTLMs <= 0 {
		return 0
	}

	return time.Duration(o.CacheTTLMs) * time.Millisecond
}

// ResolveParams merges caller parameters over declared defaults and checks
// required parameters. Callers may only pass declared names.
func (o *Operation) ResolveParams(params map[string]interface{}) (map[string]interface{}, error) {
	declared := make(map[string]*Parameter, len(o.Parameters))
	for i := range o.Parameters {
		declared[o.Parameters[i].Name] = &o.Parameters[i]
	}

	for name := range params {
		if _, ok := declared[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		}
	}

	resolved := make(map[string]interface{}, len(o.Parameters))
	for name, p := range declared {
		if v, ok := params[name]; ok {
			resolved[name] = v
			continue
		}
		if p.Default != nil {
			resolved[name] = p.Default
			continue
		}
		if p.Required {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
	}

	return resolved, nil
}

// parseOperation parses and validates one operation definition file
func parseOperation(content []byte, filePath string) (*Operation, error) {
	op := &Operation{}
	if err := yaml.Unmarshal(content, op); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	if op.ID == "" {
		return nil, fmt.Errorf("%w (%s)", ErrMissingID, filePath)
	}
	if op.Source == "" {
		return nil, fmt.Errorf("%w (%s)", ErrMissingSource, filePath)
	}
	if statementSources[op.Source] && op.Statement == "" {
		return nil, fmt.Errorf("%w (%s)", ErrMissingStatement, filePath)
	}
	if op.Name == "" {
		op.Name = op.ID
	}

	return op, nil
}
