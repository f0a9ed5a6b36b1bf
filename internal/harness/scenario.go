package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query-building scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Templates is the path of the field templates (CUE directory or YAML
	// file). Empty disables template checks.
	Templates string `yaml:"templates,omitempty"`

	// Collection selects the templates to check links against. Required
	// when Templates is set.
	Collection string `yaml:"collection,omitempty"`

	// Session is the fixed session id. When empty the run uses
	// DefaultSessionID, or a fresh UUIDv7 when it records to a journal.
	Session string `yaml:"session,omitempty"`

	// Config overrides the engine settings for this scenario.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DefaultSessionID is used when a scenario does not name its session.
const DefaultSessionID = "scenario-session"

// ScenarioConfig holds per-scenario engine settings. Zero values fall back
// to the run defaults.
type ScenarioConfig struct {
	MaxLinks     int `yaml:"max_links,omitempty"`
	DefaultLimit int `yaml:"default_limit,omitempty"`
}

// Step is one user action.
type Step struct {
	Op string `yaml:"op"`

	// insert, delete
	Kind    string   `yaml:"kind,omitempty"`
	Logical string   `yaml:"logical,omitempty"`
	Link    []string `yaml:"link,omitempty"`
	Index   *int     `yaml:"index,omitempty"`

	// filter_draft, sort_draft, toggle_projection, limit
	Field     string  `yaml:"field,omitempty"`
	Operator  string  `yaml:"operator,omitempty"`
	Value     *string `yaml:"value,omitempty"`
	Direction string  `yaml:"direction,omitempty"`

	// search
	Inclusion *string `yaml:"inclusion,omitempty"`
	Exclusion *string `yaml:"exclusion,omitempty"`
	Case      string  `yaml:"case,omitempty"`

	// projection
	Fields []string `yaml:"fields,omitempty"`

	// set_error
	Error *bool `yaml:"error,omitempty"`

	// Expect is the outcome reason of an insert or delete.
	Expect string `yaml:"expect,omitempty"`

	// Query is the expected result of a compile step.
	Query *string `yaml:"query,omitempty"`
}

// Step operations.
const (
	OpInsert           = "insert"
	OpDelete           = "delete"
	OpFilterDraft      = "filter_draft"
	OpInsertFilter     = "insert_filter"
	OpSortDraft        = "sort_draft"
	OpInsertSort       = "insert_sort"
	OpSearch           = "search"
	OpCommitSearch     = "commit_search"
	OpResetSearch      = "reset_search"
	OpProjection       = "projection"
	OpToggleProjection = "toggle_projection"
	OpLimit            = "limit"
	OpSetError         = "set_error"
	OpCompile          = "compile"
)

// dispatching reports whether op produces an outcome.
func dispatching(op string) bool {
	switch op {
	case OpInsert, OpDelete, OpInsertFilter, OpInsertSort:
		return true
	}
	return false
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// query
	Equals string `yaml:"equals,omitempty"`

	// chain_len; Logical empty counts every chain of Kind.
	Kind    string `yaml:"kind,omitempty"`
	Logical string `yaml:"logical,omitempty"`

	// chain_len, reason_count
	Count  int    `yaml:"count,omitempty"`
	Reason string `yaml:"reason,omitempty"`

	// sentences
	Lines []string `yaml:"lines,omitempty"`

	// projection
	Fields []string `yaml:"fields,omitempty"`

	// search_match
	Document string `yaml:"document,omitempty"`
	Match    *bool  `yaml:"match,omitempty"`
}

// Assertion type constants.
const (
	AssertQuery       = "query"
	AssertChainLen    = "chain_len"
	AssertReasonCount = "reason_count"
	AssertSentences   = "sentences"
	AssertProjection  = "projection"
	AssertSearchMatch = "search_match"
)

// LoadScenario reads and parses a scenario YAML file. A relative templates
// path is resolved against the directory of the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving a relative templates path
// against baseDir. Unknown fields are rejected.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Templates != "" && !filepath.IsAbs(scenario.Templates) && baseDir != "" {
		scenario.Templates = filepath.Join(baseDir, scenario.Templates)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Templates != "" {
		if s.Collection == "" {
			return fmt.Errorf("collection is required when templates is set")
		}
		if _, err := os.Stat(s.Templates); os.IsNotExist(err) {
			return fmt.Errorf("templates not found: %s", s.Templates)
		}
	}
	if s.Config.MaxLinks < 0 {
		return fmt.Errorf("config.max_links must be non-negative")
	}
	if s.Config.DefaultLimit < 0 {
		return fmt.Errorf("config.default_limit must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields an operation needs. Values the engine
// judges (kinds, operators, directions) are left to the engine so that
// scenarios can exercise rejections.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpInsert:
		if len(st.Link) != 3 {
			return fmt.Errorf("steps[%d]: insert requires link [field, operator, value], got %d elements", index, len(st.Link))
		}
	case OpDelete:
		if st.Index == nil {
			return fmt.Errorf("steps[%d]: delete requires index", index)
		}
	case OpToggleProjection:
		if st.Field == "" {
			return fmt.Errorf("steps[%d]: toggle_projection requires field", index)
		}
	case OpLimit:
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: limit requires value", index)
		}
	case OpSetError:
		if st.Error == nil {
			return fmt.Errorf("steps[%d]: set_error requires error", index)
		}
	case OpFilterDraft, OpInsertFilter, OpSortDraft, OpInsertSort,
		OpSearch, OpCommitSearch, OpResetSearch, OpProjection, OpCompile:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != "" && !dispatching(st.Op) {
		return fmt.Errorf("steps[%d]: expect is only valid on insert, delete, insert_filter and insert_sort", index)
	}
	if st.Query != nil && st.Op != OpCompile {
		return fmt.Errorf("steps[%d]: query is only valid on compile", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQuery:
		if a.Equals == "" {
			return fmt.Errorf("assertions[%d]: equals is required for query", index)
		}
	case AssertChainLen:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for chain_len", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for chain_len", index)
		}
	case AssertReasonCount:
		if a.Reason == "" {
			return fmt.Errorf("assertions[%d]: reason is required for reason_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for reason_count", index)
		}
	case AssertSentences, AssertProjection:
	case AssertSearchMatch:
		if a.Match == nil {
			return fmt.Errorf("assertions[%d]: match is required for search_match", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
