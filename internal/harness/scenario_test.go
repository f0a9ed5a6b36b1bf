package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesTemplates(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "users_templates.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "users_templates", s.Name)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "..", "..", "..", "..", "testdata", "templates"), s.Templates)
	assert.Equal(t, "users", s.Collection)
	assert.Len(t, s.Steps, 17)
	require.NotNil(t, s.Steps[15].Value)
	assert.Equal(t, "abc", *s.Steps[15].Value)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
stepz:
  - op: compile
`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_AbsoluteTemplatesUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collections:\n  users:\n    - name: a\n      kind: text\n"), 0o644))

	s, err := ParseScenario([]byte(`
name: abs
description: d
templates: `+path+`
collection: users
steps:
  - op: compile
`), "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, path, s.Templates)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "description: d\nsteps: [{op: compile}]\n", "name is required"},
		{"missing description", "name: n\nsteps: [{op: compile}]\n", "description is required"},
		{"no steps", "name: n\ndescription: d\n", "steps list is required"},
		{"templates without collection", "name: n\ndescription: d\ntemplates: x\nsteps: [{op: compile}]\n", "collection is required"},
		{"templates missing", "name: n\ndescription: d\ntemplates: /no/such/dir\ncollection: c\nsteps: [{op: compile}]\n", "templates not found"},
		{"negative max links", "name: n\ndescription: d\nconfig: {max_links: -1}\nsteps: [{op: compile}]\n", "config.max_links"},
		{"missing op", "name: n\ndescription: d\nsteps: [{kind: filter}]\n", "steps[0]: op is required"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: fly}]\n", `unknown op "fly"`},
		{"short link", "name: n\ndescription: d\nsteps: [{op: insert, link: [a, b]}]\n", "insert requires link"},
		{"delete without index", "name: n\ndescription: d\nsteps: [{op: delete, kind: filter}]\n", "delete requires index"},
		{"toggle without field", "name: n\ndescription: d\nsteps: [{op: toggle_projection}]\n", "toggle_projection requires field"},
		{"limit without value", "name: n\ndescription: d\nsteps: [{op: limit}]\n", "limit requires value"},
		{"set_error without error", "name: n\ndescription: d\nsteps: [{op: set_error}]\n", "set_error requires error"},
		{"expect on draft", "name: n\ndescription: d\nsteps: [{op: filter_draft, expect: inserted}]\n", "expect is only valid"},
		{"query on insert", "name: n\ndescription: d\nsteps: [{op: insert, link: [a, b, c], query: x}]\n", "query is only valid"},
		{"assertion type missing", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{count: 1}]\n", "type is required"},
		{"assertion type unknown", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{type: magic}]\n", `unknown assertion type "magic"`},
		{"query without equals", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{type: query}]\n", "equals is required"},
		{"chain_len without kind", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{type: chain_len}]\n", "kind is required"},
		{"reason_count without reason", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{type: reason_count}]\n", "reason is required"},
		{"search_match without match", "name: n\ndescription: d\nsteps: [{op: compile}]\nassertions: [{type: search_match, document: x}]\n", "match is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
