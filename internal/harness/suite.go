package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarises a batch of scenario runs.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`

	// Scenarios lists every run in file order.
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// ScenarioOutcome is the result of one scenario file.
type ScenarioOutcome struct {
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteFailure is one scenario that failed to load, run or pass.
type SuiteFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Scenario     string   `json:"scenario,omitempty"`
	Errors       []string `json:"errors"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// ExpandPaths turns a list of files and directories into scenario files.
// Directories contribute their *.yaml and *.yml files, sorted by name.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("scenario dir %s: %w", p, err)
		}
		var files []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

// RunSuite loads and runs every scenario file. Each run gets its own session;
// a failure in one scenario does not stop the others.
func RunSuite(ctx context.Context, paths []string, opts ...RunOption) (*SuiteResult, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{Scenarios: []ScenarioOutcome{}}
	for _, path := range files {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(path, "", fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		runResult, err := Run(ctx, scenario, opts...)
		if err != nil {
			result.fail(path, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if !runResult.Pass {
			result.fail(path, scenario.Name, runResult.Errors...)
			continue
		}
		result.Passed++
		result.Scenarios = append(result.Scenarios, ScenarioOutcome{Path: path, Name: scenario.Name, Pass: true})
	}
	return result, nil
}

func (r *SuiteResult) fail(path, name string, errs ...string) {
	if name == "" {
		name = filepath.Base(path)
	}
	r.Failed++
	r.Scenarios = append(r.Scenarios, ScenarioOutcome{Path: path, Name: name, Errors: errs})
	r.Failures = append(r.Failures, SuiteFailure{
		ScenarioPath: path,
		Scenario:     name,
		Errors:       errs,
	})
}
