package template

import (
	"fmt"
	"slices"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Registry holds the field templates of every loaded collection.
// It is read-only once loading has finished.
type Registry struct {
	order       []string
	collections map[string][]FieldTemplate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string][]FieldTemplate)}
}

// Add registers the templates of a collection. Templates are validated and
// keep their declaration order.
func (r *Registry) Add(collection string, fields []FieldTemplate) error {
	if collection == "" {
		return &CompileError{Field: "collection", Message: "collection name is required"}
	}
	if _, exists := r.collections[collection]; exists {
		return &CompileError{
			Field:   "collection." + collection,
			Message: "collection declared twice",
		}
	}

	seen := make(map[string]bool, len(fields))
	out := make([]FieldTemplate, 0, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return &CompileError{
				Field:   fmt.Sprintf("collection.%s.%s", collection, f.Name),
				Message: "duplicate field",
			}
		}
		seen[f.Name] = true
		f.Operators = slices.Clone(f.Operators)
		f.Options = slices.Clone(f.Options)
		out = append(out, f)
	}

	r.order = append(r.order, collection)
	r.collections[collection] = out
	return nil
}

// Collections returns the collection names in load order.
func (r *Registry) Collections() []string {
	return slices.Clone(r.order)
}

// Templates returns the templates of a collection in declaration order.
// Unknown collections yield nil.
func (r *Registry) Templates(collection string) []FieldTemplate {
	fields, ok := r.collections[collection]
	if !ok {
		return nil
	}
	out := make([]FieldTemplate, len(fields))
	for i, f := range fields {
		f.Operators = slices.Clone(f.Operators)
		f.Options = slices.Clone(f.Options)
		out[i] = f
	}
	return out
}

// Lookup finds a field template by name.
func (r *Registry) Lookup(collection, field string) (FieldTemplate, bool) {
	for _, f := range r.collections[collection] {
		if f.Name == field {
			return f, true
		}
	}
	return FieldTemplate{}, false
}

// Suggest returns the known field closest to field by edit distance.
// It returns "" when the collection is empty or nothing is reasonably close.
func (r *Registry) Suggest(collection, field string) string {
	best := ""
	bestDist := -1
	for _, f := range r.collections[collection] {
		d := levenshtein.DistanceForStrings([]rune(field), []rune(f.Name), levenshtein.DefaultOptions)
		if bestDist < 0 || d < bestDist {
			best, bestDist = f.Name, d
		}
	}
	// More than half the name rewritten is not a typo.
	if bestDist < 0 || bestDist > max(len(field), len(best))/2 {
		return ""
	}
	return best
}
