package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Result(true, CompileResult{Session: "s1", Query: "?&limit=10", Pass: true}, nil, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "?&limit=10", data["query"])
}

func TestOutputFormatter_JSONDoesNotEscapeQuery(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Result(true, map[string]string{"query": "?&and[a][$gt]=1&limit=10"}, nil, nil))
	assert.Contains(t, buf.String(), `"?&and[a][$gt]=1&limit=10"`)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]string{"file": "users.cue", "line": "4"}
	err := formatter.Fail(ExitFailure, ErrCodeFieldKind, "unknown kind", details)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E102", resp.Error.Code)
	assert.Equal(t, "unknown kind", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
		notWant string
	}{
		{"quiet", false, "Error [E005]: templates not found\n", "Details"},
		{"verbose", true, "Details: path=/nope", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			_ = formatter.Fail(ExitCommandError, ErrCodeNotFound, "templates not found", "path=/nope")
			assert.Contains(t, buf.String(), tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, buf.String(), tt.notWant)
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(ExitCommandError, ErrCodeNoFiles, "no CUE files found in x", nil)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
	assert.Equal(t, "Error [E003]: no CUE files found in x\n", buf.String())
}

func TestOutputFormatter_Result(t *testing.T) {
	text := func(w io.Writer) { fmt.Fprintln(w, "plain") }

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, formatter.Result(false, nil, &CLIError{Code: ErrCodeGeneric}, text))
		assert.Equal(t, "plain\n", buf.String())
	})

	t.Run("json failure", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, formatter.Result(false, ValidationResult{Valid: false}, &CLIError{Code: ErrCodeDuplicate, Message: "declared twice"}, text))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, "E105", resp.Error.Code)
		assert.NotNil(t, resp.Data)
	})

	t.Run("json success drops error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, formatter.Result(true, ValidationResult{Valid: true}, &CLIError{Code: ErrCodeGeneric}, text))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Nil(t, resp.Error)
	})
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	formatter.VerboseLog("Loaded %d collection(s)", 2)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("Loaded %d collection(s)", 2)
	assert.Equal(t, "Loaded 2 collection(s)\n", errOut.String())
	assert.Empty(t, out.String(), "verbose logs must not corrupt JSON output")

	formatter.ErrWriter = nil
	formatter.VerboseLog("fallback")
	assert.Equal(t, "fallback\n", out.String())
}

func TestGetExitCode(t *testing.T) {
	base := errors.New("disk full")

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(base))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := WrapExitError(ExitCommandError, "E007: failed to record session", base)
	assert.Equal(t, "E007: failed to record session: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", wrapped)))
}
