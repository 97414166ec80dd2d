package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

type ExitCode int

const (
	ExitCodeSuccess       ExitCode = 0
	ExitCodeGeneral       ExitCode = 1
	ExitCodeConfig        ExitCode = 2
	ExitCodeStorage       ExitCode = 3
	ExitCodeNotFound      ExitCode = 4
	ExitCodeClipboard     ExitCode = 5
	ExitCodeValidation    ExitCode = 6
	ExitCodeFileOperation ExitCode = 7
	ExitCodeCancellation  ExitCode = 8
	ExitCodeTimeout       ExitCode = 9
	ExitCodeUnsupported   ExitCode = 10
)

// Standardized messages for user-facing errors
const (
	ErrMsgBackendInit   = "Failed to initialize storage backend"
	ErrMsgClipboardCopy = "Failed to copy to clipboard"
	ErrMsgExportFailed  = "Failed to export clipboard history"
	ErrMsgImportFailed  = "Import failed: file format is invalid"
	ErrMsgReadInput     = "Failed to read paste input"
	ErrMsgInvalidInput  = "Invalid input provided"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// HandleReturn prints err to stderr and returns the exit code the process
// should terminate with. The caller is responsible for exiting.
func HandleReturn(err error) ExitCode {
	return HandleReturnTo(os.Stderr, err)
}

func HandleReturnTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		if e.Underlying != nil {
			message = e.Error()
		}
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Debug().Err(e.Underlying).Msg(e.Message)
		}
	} else {
		message = err.Error()
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(w, line)
			} else if strings.HasPrefix(line, "  -") {
				cyan.Fprintln(w, line)
			} else {
				fmt.Fprintln(w, "            "+line)
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func ConfigError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Underlying: err,
		Suggestion: "Check ~/.infinity-clipboard/config.yaml or the INFCLIP_* environment variables.",
	}
}

func EntryNotFoundError(id int) *Error {
	return &Error{
		Code:       ExitCodeNotFound,
		Message:    fmt.Sprintf("Entry %d not found", id),
		Suggestion: "Use 'infclip list' to see the ids in your history.",
	}
}

func StorageError(err error) *Error {
	return &Error{
		Code:       ExitCodeStorage,
		Message:    ErrMsgBackendInit,
		Underlying: err,
		Suggestion: "Check the backend settings, or run with --backend local.",
	}
}

func ClipboardError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardCopy,
		Underlying: err,
		Suggestion: "On Linux, install xclip, xsel or wl-clipboard.",
	}
}

func TimeoutError(operation string) *Error {
	return &Error{
		Code:       ExitCodeTimeout,
		Message:    fmt.Sprintf("Operation timed out: %s", operation),
		Suggestion: "Try again with a longer timeout using --timeout flag.",
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:    ExitCodeCancellation,
		Message: fmt.Sprintf("Operation cancelled: %s", operation),
	}
}
