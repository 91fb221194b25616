// Package schema validates specification documents against embedded CUE
// schemas before they are decoded into typed spec models. Registries run
// this validation on every load so that malformed documents never reach
// the processing pipeline.
package schema

import (
	"embed"
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Document type constants, matching the "type" field of spec documents.
const (
	TypeInstrumentSpec  = "instrument_spec"
	TypeFormBindingSpec = "form_binding_spec"
)

// definition names inside the embedded schemas, keyed by document type.
var definitions = map[string]string{
	TypeInstrumentSpec:  "#InstrumentSpec",
	TypeFormBindingSpec: "#FormBindingSpec",
}

// Issue is a single schema violation found in a spec document.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Validator checks spec documents against the embedded CUE schemas.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator compiles the embedded schemas. It fails if any schema file
// does not compile, which would indicate a broken build.
func NewValidator() (*Validator, error) {
	v := &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schemas: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(filepath.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}
		compiled := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if err := compiled.Err(); err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", entry.Name(), err)
		}
		// instrument_spec.cue -> instrument_spec
		name := entry.Name()[:len(entry.Name())-len(".cue")]
		v.schemas[name] = compiled
	}

	if len(v.schemas) == 0 {
		return nil, fmt.Errorf("no CUE schemas embedded")
	}
	return v, nil
}

// ValidateInstrument checks a decoded instrument spec document.
func (v *Validator) ValidateInstrument(data map[string]any) []Issue {
	return v.validate(TypeInstrumentSpec, data)
}

// ValidateBinding checks a decoded form binding spec document.
func (v *Validator) ValidateBinding(data map[string]any) []Issue {
	return v.validate(TypeFormBindingSpec, data)
}

// ValidateDocument dispatches on the document's "type" field.
func (v *Validator) ValidateDocument(data map[string]any) ([]Issue, error) {
	docType, _ := data["type"].(string)
	switch docType {
	case TypeInstrumentSpec:
		return v.ValidateInstrument(data), nil
	case TypeFormBindingSpec:
		return v.ValidateBinding(data), nil
	default:
		return nil, fmt.Errorf("unknown spec document type: %q", docType)
	}
}

func (v *Validator) validate(docType string, data map[string]any) []Issue {
	schema, ok := v.schemas[docType]
	if !ok {
		return []Issue{{Message: fmt.Sprintf("no schema registered for %s", docType)}}
	}

	def := schema.LookupPath(cue.ParsePath(definitions[docType]))
	if !def.Exists() {
		return []Issue{{Message: fmt.Sprintf("schema definition %s missing", definitions[docType])}}
	}

	dataValue := v.ctx.Encode(data)
	if err := dataValue.Err(); err != nil {
		return []Issue{{Message: fmt.Sprintf("cannot encode document: %v", err)}}
	}

	unified := def.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return issuesFromCUE(err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return issuesFromCUE(err)
	}
	return nil
}

// issuesFromCUE flattens a CUE error into one Issue per underlying failure.
func issuesFromCUE(err error) []Issue {
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		path := ""
		if p := e.Path(); len(p) > 0 {
			path = p[0]
			for _, seg := range p[1:] {
				path += "." + seg
			}
		}
		format, args := e.Msg()
		issues = append(issues, Issue{
			Path:    path,
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(issues) == 0 {
		issues = append(issues, Issue{Message: err.Error()})
	}
	return issues
}
