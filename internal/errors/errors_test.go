package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "basic error without underlying",
			err:      &Error{Code: ExitCodeGeneral, Message: "test error"},
			expected: "test error",
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: ExitCodeStorage, Message: "storage error", Underlying: errors.New("disk full")},
			expected: "storage error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewWithError(ExitCodeGeneral, "test error", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("errors.Is() = false, want true")
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("root cause")
	err := Wrap(underlying, "wrapped message")

	if err.Error() != "wrapped message: root cause" {
		t.Errorf("Error() = %q, want %q", err.Error(), "wrapped message: root cause")
	}
	if Wrap(nil, "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapWithCode(t *testing.T) {
	underlying := errors.New("disk full")
	err := WrapWithCode(underlying, ExitCodeFileOperation, "Failed to save image")

	if err.Code != ExitCodeFileOperation {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeFileOperation)
	}
	if err.Error() != "Failed to save image: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if WrapWithCode(nil, ExitCodeFileOperation, "message") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := New(ExitCodeNotFound, "entry missing")
	err := Wrap(inner, "copy")

	if err.Code != ExitCodeNotFound {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeNotFound)
	}
	if err.Message != "copy: entry missing" {
		t.Errorf("Message = %q, want %q", err.Message, "copy: entry missing")
	}
}

func TestIsExitCode(t *testing.T) {
	err := EntryNotFoundError(7)

	if !IsExitCode(err, ExitCodeNotFound) {
		t.Error("IsExitCode() should return true for matching code")
	}
	if IsExitCode(err, ExitCodeConfig) {
		t.Error("IsExitCode() should return false for non-matching code")
	}
	if IsExitCode(nil, ExitCodeGeneral) {
		t.Error("IsExitCode() should return false for nil error")
	}
	if IsExitCode(errors.New("plain error"), ExitCodeGeneral) {
		t.Error("IsExitCode() should return false for plain error")
	}
}

func TestHandleReturnTo(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		var buf bytes.Buffer
		if code := HandleReturnTo(&buf, nil); code != ExitCodeSuccess {
			t.Errorf("code = %d, want %d", code, ExitCodeSuccess)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("structured error with suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewWithSuggestion(ExitCodeValidation, "bad language", "Use one of:\n  - python\n  - java")
		if code := HandleReturnTo(&buf, err); code != ExitCodeValidation {
			t.Errorf("code = %d, want %d", code, ExitCodeValidation)
		}
		out := buf.String()
		for _, want := range []string{"bad language", "Use one of:", "- python"} {
			if !strings.Contains(out, want) {
				t.Errorf("output %q missing %q", out, want)
			}
		}
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		if code := HandleReturnTo(&buf, errors.New("boom")); code != ExitCodeGeneral {
			t.Errorf("code = %d, want %d", code, ExitCodeGeneral)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("output %q missing message", buf.String())
		}
	})
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code ExitCode
	}{
		{"ValidationError", ValidationError("missing id"), ExitCodeValidation},
		{"ConfigError", ConfigError("invalid yaml", nil), ExitCodeConfig},
		{"EntryNotFoundError", EntryNotFoundError(3), ExitCodeNotFound},
		{"StorageError", StorageError(errors.New("locked")), ExitCodeStorage},
		{"ClipboardError", ClipboardError(errors.New("no xclip")), ExitCodeClipboard},
		{"TimeoutError", TimeoutError("import"), ExitCodeTimeout},
		{"CancelledError", CancelledError("import"), ExitCodeCancellation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("%s code = %d, want %d", tt.name, tt.err.Code, tt.code)
			}
		})
	}
}
