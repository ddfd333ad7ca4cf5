package errors

import (
	goerrors "errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// IndexTypeNotSetError occurs when a job does not specify a spatial index type
type IndexTypeNotSetError struct{}

// Error returns a textual representation of this IndexTypeNotSetError
func (e IndexTypeNotSetError) Error() string {
	return "Index type is not set"
}

// UnknownIndexTypeError occurs when a job names a spatial index type which does not exist
type UnknownIndexTypeError struct{ Name string }

// Error returns a textual representation of this UnknownIndexTypeError
func (e UnknownIndexTypeError) Error() string {
	return fmt.Sprintf("Unknown index type '%s'", e.Name)
}

// UnsupportedIndexTypeError occurs when a job names a spatial index type which cannot be built yet
type UnsupportedIndexTypeError struct{ Name string }

// Error returns a textual representation of this UnsupportedIndexTypeError
func (e UnsupportedIndexTypeError) Error() string {
	return fmt.Sprintf("Index type '%s' is not supported", e.Name)
}

// MissingOptionError occurs when a required job option is not supplied
type MissingOptionError struct{ Name string }

// Error returns a textual representation of this MissingOptionError
func (e MissingOptionError) Error() string {
	return fmt.Sprintf("Required option %s is missing", e.Name)
}

// UnknownShapeTypeError occurs when a shape type tag is not recognized
type UnknownShapeTypeError struct{ Name string }

// Error returns a textual representation of this UnknownShapeTypeError
func (e UnknownShapeTypeError) Error() string {
	return fmt.Sprintf("Unknown shape type '%s'", e.Name)
}

// InvalidOptionError occurs when a job option has an unusable value
type InvalidOptionError struct {
	Name   string
	Reason string
}

// Error returns a textual representation of this InvalidOptionError
func (e InvalidOptionError) Error() string {
	return fmt.Sprintf("Invalid value for option %s: %s", e.Name, e.Reason)
}

// OutputExistsError occurs when the output of a job already exists and may not be overwritten
type OutputExistsError struct{ Path string }

// Error returns a textual representation of this OutputExistsError
func (e OutputExistsError) Error() string {
	return fmt.Sprintf("Output path %s already exists", e.Path)
}

// NoMoreShapesError occurs when there are no more Shapes in a ShapeIterator
type NoMoreShapesError struct{}

// Error returns a textual representation of this NoMoreShapesError
func (e NoMoreShapesError) Error() string {
	return "No more shapes"
}

// InvalidShapeError occurs when a line of input cannot be parsed into a Shape
type InvalidShapeError struct {
	Line   int
	Text   string
	Reason string
}

// Error returns a textual representation of this InvalidShapeError
func (e InvalidShapeError) Error() string {
	return fmt.Sprintf("Invalid shape on line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// TaskFailedError occurs when every attempt of a task has failed
type TaskFailedError struct {
	TaskType string
	Task     int
	Attempts int
	Err      error
}

// Error returns a textual representation of this TaskFailedError
func (e TaskFailedError) Error() string {
	return fmt.Sprintf("%s task %d failed after %d attempts: %v", e.TaskType, e.Task, e.Attempts, e.Err)
}

// Unwrap returns the errors of the failed attempts
func (e TaskFailedError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true iff err, or any error aggregated within it,
// is caused by an invalid job configuration
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var merr *multierror.Error
	if goerrors.As(err, &merr) {
		for _, e := range merr.Errors {
			if IsConfigurationError(e) {
				return true
			}
		}
		return false
	}
	var (
		notSet      IndexTypeNotSetError
		unknown     UnknownIndexTypeError
		unsupported UnsupportedIndexTypeError
		missing     MissingOptionError
		shapeType   UnknownShapeTypeError
		invalid     InvalidOptionError
	)
	return goerrors.As(err, &notSet) ||
		goerrors.As(err, &unknown) ||
		goerrors.As(err, &unsupported) ||
		goerrors.As(err, &missing) ||
		goerrors.As(err, &shapeType) ||
		goerrors.As(err, &invalid)
}
