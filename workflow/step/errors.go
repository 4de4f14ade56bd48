package step

import "fmt"

// RenderError reports a template that could not be parsed or rendered,
// including an unresolved required variable.
type RenderError struct {
	Detail string
	Cause  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: %s: %v", e.Detail, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// IOError reports a failed file operation.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// NetworkError reports a failed HTTP request or a rejected response.
type NetworkError struct {
	URL    string
	Status int
	Cause  error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error: %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("network error: %s returned status %d", e.URL, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Cause }
