package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/chain"
)

func TestDefaultOperators(t *testing.T) {
	assert.Len(t, DefaultOperators(KindNumber), 6)
	assert.Equal(t, DefaultOperators(KindNumber), DefaultOperators(KindDate))
	assert.Equal(t, []chain.Operator{chain.OpEqual, chain.OpNotEqual}, DefaultOperators(KindText))
	assert.Contains(t, DefaultOperators(KindSelect), chain.OpIn)
	assert.Nil(t, DefaultOperators(Kind("blob")))
}

func TestValidate_FillsDefaults(t *testing.T) {
	f := FieldTemplate{Name: "age", Kind: KindNumber}
	require.NoError(t, f.Validate())
	assert.True(t, f.Allows(chain.OpGreaterThan))
	assert.False(t, f.Allows(chain.OpIn))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field FieldTemplate
		want  string
	}{
		{"missing name", FieldTemplate{Kind: KindText}, "field name is required"},
		{"unknown kind", FieldTemplate{Name: "x", Kind: "blob"}, "unknown kind"},
		{"unknown operator", FieldTemplate{Name: "x", Kind: KindText, Operators: []chain.Operator{"like"}}, "unknown operator"},
		{"options on text", FieldTemplate{Name: "x", Kind: KindText, Options: []string{"a"}}, "options are only allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, ce.Message, tt.want)
		})
	}
}

func TestCheckValue(t *testing.T) {
	number := FieldTemplate{Name: "age", Kind: KindNumber}
	date := FieldTemplate{Name: "createdAt", Kind: KindDate}
	sel := FieldTemplate{Name: "role", Kind: KindSelect, Options: []string{"admin", "member"}}
	openSel := FieldTemplate{Name: "tag", Kind: KindSelect}
	text := FieldTemplate{Name: "username", Kind: KindText}

	tests := []struct {
		name  string
		field FieldTemplate
		value string
		ok    bool
	}{
		{"integer", number, "30", true},
		{"decimal", number, "-12.50", true},
		{"not a number", number, "thirty", false},
		{"plain date", date, "2024-03-01", true},
		{"rfc3339", date, "2024-03-01T10:00:00Z", true},
		{"bad date", date, "03/01/2024", false},
		{"known option", sel, "admin", true},
		{"unknown option", sel, "root", false},
		{"select without options", openSel, "anything", true},
		{"text", text, "jdoe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.CheckValue(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "users.age.kind", Message: "kind is required"}
	assert.Equal(t, "users.age.kind: kind is required", err.Error())
}
