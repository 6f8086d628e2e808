package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/revlog/internal/revision"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation or failing scenario (conflict, not found, golden mismatch)
	ExitCommandError = 2 // Command error (bad arguments, unreadable config, database not openable)
)

// Error codes for failures that do not come from the revision service.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeBadArgs    = "E002" // Argument could not be parsed
	ErrCodeConfig     = "E003" // Config load failed
	ErrCodeStore      = "E004" // Database could not be opened
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodePageAbsent = "E006" // Page or job unknown
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written through an
	// OutputFormatter, so main does not print it a second time.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err has already been written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // NOT_FOUND, CONFLICT, E001, ...
	Message string      `json:"message"`           // human-readable message
	FileID  string      `json:"file_id,omitempty"` // file the error concerns
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Emit outputs data as JSON, or text verbatim in text mode.
func (f *OutputFormatter) Emit(data interface{}, text string) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	fmt.Fprint(f.Writer, text)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	return f.write(&CLIError{Code: code, Message: message, Details: details})
}

func (f *OutputFormatter) write(e *CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  e,
		})
	}

	// Human-readable error
	if e.FileID != "" {
		fmt.Fprintf(f.Writer, "Error [%s]: %s (file %s)\n", e.Code, e.Message, e.FileID)
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	}
	if f.Verbose && e.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", e.Details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
//
// Revision service errors keep their code (NOT_FOUND, CONFLICT, ...) and
// exit with ExitFailure. Anything else is reported under fallbackCode and
// exits with ExitCommandError.
func (f *OutputFormatter) Fail(fallbackCode string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr
	}

	var revErr *revision.Error
	if errors.As(err, &revErr) {
		cliErr := &CLIError{
			Code:    string(revErr.Code),
			Message: revErr.Message,
			FileID:  revErr.FileID,
		}
		if len(revErr.Details) > 0 {
			cliErr.Details = revErr.Details
		}
		_ = f.write(cliErr)
		out := WrapExitError(ExitFailure, string(revErr.Code), err)
		out.Reported = true
		return out
	}

	code := ExitCommandError
	if exitErr != nil {
		code = exitErr.Code
	}
	_ = f.Error(fallbackCode, err.Error(), nil)
	out := WrapExitError(code, fallbackCode, err)
	out.Reported = true
	return out
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
