package engine

import (
	"errors"
	"fmt"
)

// ExecutionError is an error raised by the execution engine.
// The pipeline propagates it unchanged; it is never retried or masked.
type ExecutionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// DatasetID identifies the affected dataset, when known.
	DatasetID string

	// SQL is the statement that failed, when one was built.
	SQL string

	// Err is the underlying driver error.
	Err error
}

// ErrorCode categorizes execution errors.
type ErrorCode string

const (
	// ErrCodeExecutionFailed indicates the engine rejected or failed a statement.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// ErrCodeDatasetMissing indicates the backing table does not exist.
	ErrCodeDatasetMissing ErrorCode = "DATASET_MISSING"

	// ErrCodeLoadFailed indicates a dataset file could not be loaded.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"

	// ErrCodeProfileFailed indicates profiling statistics could not be computed.
	ErrCodeProfileFailed ErrorCode = "PROFILE_FAILED"
)

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.DatasetID != "" {
		msg += fmt.Sprintf(" (dataset=%s)", e.DatasetID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying driver error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError returns true if err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// IsDatasetMissing returns true if the error reports a missing backing table.
// Uses errors.As to handle wrapped errors.
func IsDatasetMissing(err error) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeDatasetMissing
	}
	return false
}

func newExecutionError(code ErrorCode, datasetID, sql, message string, err error) *ExecutionError {
	return &ExecutionError{
		Code:      code,
		Message:   message,
		DatasetID: datasetID,
		SQL:       sql,
		Err:       err,
	}
}
