package session

import "fmt"

// ModelLoadError reports a failure to turn a model path into a live engine
// session: missing file, unparseable model, or backend construction failure.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed caller input bag or a malformed
// session. Name is set for per-input failures and empty for bag-level ones.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Name)
}

// DataConversionError reports a shape or type mismatch converting between
// generic values and native tensors, in either direction.
type DataConversionError struct {
	Name   string
	Reason string
}

func (e *DataConversionError) Error() string {
	if e.Name == "" {
		return e.Reason
	}
	return fmt.Sprintf("tensor %q: %s", e.Name, e.Reason)
}

// InferenceError reports an execution failure inside the engine, or a
// declared output missing from the engine's result (Name set, Err nil).
type InferenceError struct {
	Name string
	Err  error
}

func (e *InferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("inference produced no output named %q", e.Name)
	}
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
