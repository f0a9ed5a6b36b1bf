package template

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querychain/internal/chain"
)

// CompileError is a template load error with an optional source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads every collection declared in the .cue files of dir:
//
//	collection: users: fields: {
//		username: {kind: "text"}
//		age:      {kind: "number", operators: ["equal to", "greater than"]}
//		role:     {kind: "select", options: ["admin", "member"]}
//	}
func LoadCUE(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates directory: not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRegistry(value)
}

// CompileRegistry builds a registry from a CUE value holding a top-level
// "collection" struct.
func CompileRegistry(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	collections := v.LookupPath(cue.ParsePath("collection"))
	if !collections.Exists() {
		return nil, &CompileError{
			Field:   "collection",
			Message: "no collections declared",
			Pos:     v.Pos(),
		}
	}

	iter, err := collections.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := NewRegistry()
	for iter.Next() {
		name := iter.Label()
		fields, err := CompileCollection(iter.Value())
		if err != nil {
			return nil, err
		}
		if err := reg.Add(name, fields); err != nil {
			return nil, withPos(err, iter.Value().Pos())
		}
	}
	return reg, nil
}

// CompileCollection parses the fields of one collection value.
func CompileCollection(v cue.Value) ([]FieldTemplate, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []FieldTemplate
	for iter.Next() {
		f, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func compileField(name string, v cue.Value) (FieldTemplate, error) {
	f := FieldTemplate{Name: name}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return f, &CompileError{
			Field:   name + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Kind = Kind(kind)

	ops, err := stringList(v, "operators")
	if err != nil {
		return f, err
	}
	for _, op := range ops {
		f.Operators = append(f.Operators, chain.Operator(op))
	}

	f.Options, err = stringList(v, "options")
	if err != nil {
		return f, err
	}

	if err := f.Validate(); err != nil {
		return f, withPos(err, v.Pos())
	}
	return f, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, path string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(path))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// withPos attaches pos to a CompileError that has none.
func withPos(err error, pos token.Pos) error {
	if ce, ok := err.(*CompileError); ok && !ce.Pos.IsValid() {
		ce.Pos = pos
	}
	return err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
