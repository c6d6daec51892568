// Package schema validates plugin and marketplace manifests against embedded
// JSON Schemas.
package schema

import (
	"embed"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Kind selects which schema a document is checked against.
type Kind string

const (
	KindPlugin      Kind = "plugin"
	KindMarketplace Kind = "marketplace"
)

var schemaFiles = map[Kind]string{
	KindPlugin:      "schemas/plugin.schema.json",
	KindMarketplace: "schemas/marketplace.schema.json",
}

// Result is the outcome of validating one file.
type Result struct {
	Path   string   `json:"path"`
	Kind   Kind     `json:"kind"`
	Errors []string `json:"errors,omitempty"`
}

// Valid reports whether the file passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[Kind]*gojsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[Kind]*gojsonschema.Schema)}
	for kind, name := range schemaFiles {
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s schema: %w", kind, err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", kind, err)
		}
		v.schemas[kind] = s
	}
	return v, nil
}

// Validate checks a JSON document. The returned slice lists every schema
// violation; err is set only when data is not JSON at all.
func (v *Validator) Validate(kind Kind, data []byte) ([]string, error) {
	s, ok := v.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema kind %q", kind)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var problems []string
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// ValidateFile reads and validates path. Read and parse failures are
// reported as validation errors so callers can tally one result per file.
func (v *Validator) ValidateFile(path string, kind Kind) Result {
	res := Result{Path: path, Kind: kind}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}

	problems, err := v.Validate(kind, data)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.Errors = problems
	return res
}
