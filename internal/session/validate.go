package session

import (
	"github.com/example/go-onnx-session/internal/tensor"
)

// validateInputs enforces the closed-world contract between the model's
// declared inputs and the caller-supplied bag: the bag must be non-empty,
// every entry must be named, and the name sets must match exactly. Partial
// or superset bags are rejected.
func validateInputs(declared []NodeInfo, provided map[string]*tensor.Value) error {
	if len(provided) == 0 {
		return &ValidationError{Reason: "no inputs provided"}
	}

	for name := range provided {
		if name == "" {
			return &ValidationError{Reason: "inputs must be a named bag, got an unnamed entry"}
		}
	}

	declaredSet := make(map[string]bool, len(declared))
	for _, node := range declared {
		declaredSet[node.Name] = true
		if _, ok := provided[node.Name]; !ok {
			return &ValidationError{Name: node.Name, Reason: "missing required input"}
		}
	}

	for name := range provided {
		if !declaredSet[name] {
			return &ValidationError{Name: name, Reason: "unexpected input"}
		}
	}

	return nil
}
