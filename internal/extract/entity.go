// Package extract recovers exported function signatures from TypeScript
// syntax trees.
package extract

// Marker text carried by records built from an export clause such as
// `export { helper }`. The clause only names the binding, so the real
// signature is unknown and these markers stand in for it.
const (
	PlaceholderParamName = "// identified from export list"
	PlaceholderType      = "// requires original declaration"
)

// Parameter is one formal parameter of an exported function.
type Parameter struct {
	Name            string `json:"name" yaml:"name"`
	Type            string `json:"type,omitempty" yaml:"type,omitempty"`
	DefaultValue    string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	IsOptional      bool   `json:"is_optional" yaml:"is_optional"`
	IsRestParameter bool   `json:"is_rest_parameter" yaml:"is_rest_parameter"`
}

// ExportedFunction is the signature of one exported function.
type ExportedFunction struct {
	Name       string      `json:"name" yaml:"name"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	ReturnType string      `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	LineNumber int         `json:"line_number" yaml:"line_number"`
	SourceText string      `json:"source_text" yaml:"source_text"`
}

// placeholderParameters returns the single marker parameter used for
// export-clause records.
func placeholderParameters() []Parameter {
	return []Parameter{{
		Name: PlaceholderParamName,
		Type: PlaceholderType,
	}}
}

// IsPlaceholder reports whether f was recorded from an export clause and
// therefore has no real parameter or return type data.
func (f ExportedFunction) IsPlaceholder() bool {
	return f.ReturnType == PlaceholderType &&
		len(f.Parameters) == 1 &&
		f.Parameters[0].Name == PlaceholderParamName
}

// Signature renders f as a single TypeScript-like line, e.g.
// `add(a: number, b?: number, ...rest: number[]): number`.
func (f ExportedFunction) Signature() string {
	if f.IsPlaceholder() {
		return f.Name + "(?)"
	}

	sig := f.Name + "("
	for i, p := range f.Parameters {
		if i > 0 {
			sig += ", "
		}
		sig += p.String()
	}
	sig += ")"
	if f.ReturnType != "" {
		sig += ": " + f.ReturnType
	}
	return sig
}

// String renders p the way it would appear in a parameter list.
func (p Parameter) String() string {
	s := p.Name
	if p.IsRestParameter {
		s = "..." + s
	}
	if p.IsOptional {
		s += "?"
	}
	if p.Type != "" {
		s += ": " + p.Type
	}
	if p.DefaultValue != "" {
		s += " = " + p.DefaultValue
	}
	return s
}

// cloneFunctions deep-copies fns so the caller owns every parameter slice.
func cloneFunctions(fns []ExportedFunction) []ExportedFunction {
	out := make([]ExportedFunction, len(fns))
	for i, fn := range fns {
		out[i] = fn
		if fn.Parameters != nil {
			out[i].Parameters = make([]Parameter, len(fn.Parameters))
			copy(out[i].Parameters, fn.Parameters)
		}
	}
	return out
}
