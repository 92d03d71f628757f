package errors

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "missing project", err: InputError("project not found").Build(), expected: 3},
		{name: "route collision", err: DerivationError("duplicate route").Build(), expected: 4},
		{name: "missing sidecar", err: AssetIntegrityError("no sidecar").Build(), expected: 4},
		{name: "rewrite precondition", err: RewriteError("no default export").Build(), expected: 4},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: 7},
		{name: "build failed", err: ExternalToolError("next build failed").Build(), expected: 8},
		{name: "filesystem", err: FileSystemError("copy failed").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "wrapped classified", err: fmt.Errorf("stage: %w", InputError("x").Build()), expected: 3},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, adapter.FormatError(nil))
	})

	t.Run("internal error is hidden without verbose", func(t *testing.T) {
		msg := adapter.FormatError(InternalError("internal issue").Build())
		assert.Contains(t, msg, "use -v for details")
	})

	t.Run("user-facing error shows message", func(t *testing.T) {
		msg := adapter.FormatError(InputError("output already exists").Build())
		assert.Equal(t, "Error: output already exists", msg)
	})

	t.Run("tool output is printed verbatim", func(t *testing.T) {
		err := ExternalToolError("command failed").WithOutput("npm ERR! code E404\n").Build()
		msg := adapter.FormatError(err)
		assert.Contains(t, msg, "command failed")
		assert.Contains(t, msg, "npm ERR! code E404")
	})

	t.Run("verbose shows full error", func(t *testing.T) {
		verbose := NewCLIErrorAdapter(true, slog.Default())
		msg := verbose.FormatError(InternalError("internal issue").Build())
		assert.Contains(t, msg, "[internal:fatal] internal issue")
	})

	t.Run("unclassified error", func(t *testing.T) {
		assert.Equal(t, "Error: unknown error", adapter.FormatError(&customError{msg: "unknown error"}))
	})
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter.out = &buf

	code := adapter.Report(DerivationError("duplicate identifier").Build())
	assert.Equal(t, 4, code)
	assert.Equal(t, "Error: duplicate identifier\n", buf.String())
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
