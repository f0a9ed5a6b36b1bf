package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/querychain/internal/template"
)

// LoadError represents an error that occurred while loading templates.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadTemplates loads a template registry from a directory of CUE files or
// a YAML file. Every failure is returned as a *LoadError.
func LoadTemplates(path string) (*template.Registry, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("templates not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing templates: %v", err)}
	}

	if info.IsDir() {
		cueFiles, err := filepath.Glob(filepath.Join(path, "*.cue"))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(cueFiles) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	reg, err := template.Load(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return reg, nil
}

// convertCompileError converts a template error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *template.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // Template or scenario load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Journal write error
	ErrCodeConfig      = "E008" // Config load error

	// Template validation errors
	ErrCodeFieldName     = "E101" // Missing field or collection name
	ErrCodeFieldKind     = "E102" // Missing or unknown kind
	ErrCodeOperators     = "E103" // Unknown operator
	ErrCodeOptions       = "E104" // Options on a non-select field
	ErrCodeDuplicate     = "E105" // Collection or field declared twice
	ErrCodeNoCollections = "E106" // No collections or no fields

	// Replay errors
	ErrCodeDeterminism = "E_DETERMINISM" // Replay diverged from the journal
)

// MapFieldToErrorCode maps a template error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "name":
		return ErrCodeFieldName
	case field == "collections", field == "fields":
		return ErrCodeNoCollections
	case strings.HasSuffix(field, ".kind"):
		return ErrCodeFieldKind
	case strings.HasSuffix(field, ".operators"):
		return ErrCodeOperators
	case strings.HasSuffix(field, ".options"):
		return ErrCodeOptions
	case strings.HasPrefix(field, "collection."):
		return ErrCodeDuplicate
	case field == "collection":
		return ErrCodeNoCollections
	default:
		return ErrCodeGeneric
	}
}
