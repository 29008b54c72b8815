// Package provider maps caller-supplied execution backend names onto the
// closed set of backends the inference engine understands, and decides the
// platform default ordering when the caller expresses no preference.
package provider

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind enumerates the known execution backends.
type Kind int

const (
	CPU Kind = iota
	CUDA
	TensorRT
	DirectML
	OneDNN
	CoreML
)

// String returns the canonical lower-case name used in configuration and on
// the command line.
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case TensorRT:
		return "tensorrt"
	case DirectML:
		return "directml"
	case OneDNN:
		return "onednn"
	case CoreML:
		return "coreml"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// EngineName returns the execution provider identifier ONNX Runtime reports
// from GetAvailableProviders.
func (k Kind) EngineName() string {
	switch k {
	case CPU:
		return "CPUExecutionProvider"
	case CUDA:
		return "CUDAExecutionProvider"
	case TensorRT:
		return "TensorrtExecutionProvider"
	case DirectML:
		return "DmlExecutionProvider"
	case OneDNN:
		return "DnnlExecutionProvider"
	case CoreML:
		return "CoreMLExecutionProvider"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Spec is one resolved backend plus its default engine options.
type Spec struct {
	Kind    Kind
	Options map[string]string
}

// UnknownProviderError reports a requested backend name outside the known set.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown execution provider %q (expected one of %s)", e.Name, strings.Join(knownNames(), "|"))
}

var byName = map[string]Kind{
	"cpu":      CPU,
	"cuda":     CUDA,
	"tensorrt": TensorRT,
	"directml": DirectML,
	"onednn":   OneDNN,
	"coreml":   CoreML,
}

func knownNames() []string {
	// Stable catalog order, not map order.
	kinds := []Kind{CPU, CUDA, TensorRT, DirectML, OneDNN, CoreML}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// newSpec attaches the backend-specific default options. The switch is
// exhaustive over Kind.
func newSpec(k Kind) Spec {
	switch k {
	case CPU:
		return Spec{Kind: CPU}
	case CUDA:
		return Spec{Kind: CUDA, Options: map[string]string{"device_id": "0"}}
	case TensorRT:
		return Spec{Kind: TensorRT, Options: map[string]string{"device_id": "0"}}
	case DirectML:
		return Spec{Kind: DirectML, Options: map[string]string{"device_id": "0"}}
	case OneDNN:
		return Spec{Kind: OneDNN, Options: map[string]string{"use_arena": "1"}}
	case CoreML:
		return Spec{Kind: CoreML, Options: map[string]string{"MLComputeUnits": "ALL"}}
	default:
		return Spec{Kind: k}
	}
}

// Catalog returns the full backend ordering for the current platform: the
// platform-native accelerator first, CPU always last. The engine skips
// backends its build does not carry, so offering the full set is safe.
func Catalog() []Kind {
	return catalogFor(runtime.GOOS)
}

func catalogFor(goos string) []Kind {
	switch goos {
	case "darwin":
		return []Kind{CoreML, CUDA, TensorRT, OneDNN, DirectML, CPU}
	case "windows":
		return []Kind{DirectML, CUDA, TensorRT, OneDNN, CoreML, CPU}
	default:
		return []Kind{CUDA, TensorRT, OneDNN, DirectML, CoreML, CPU}
	}
}

// Resolve turns the requested backend names into an ordered, deduplicated
// spec list. A nil or empty request yields the platform catalog. Names match
// case-insensitively; an unrecognized name fails the whole resolution. CPU is
// appended when not explicitly requested, so the result is never providerless.
func Resolve(requested []string) ([]Spec, error) {
	if len(requested) == 0 {
		catalog := Catalog()
		specs := make([]Spec, 0, len(catalog))
		for _, k := range catalog {
			specs = append(specs, newSpec(k))
		}
		return specs, nil
	}

	specs := make([]Spec, 0, len(requested)+1)
	seen := make(map[Kind]bool, len(requested))
	for _, raw := range requested {
		name := strings.ToLower(strings.TrimSpace(raw))
		kind, ok := byName[name]
		if !ok {
			return nil, &UnknownProviderError{Name: raw}
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		specs = append(specs, newSpec(kind))
	}
	if !seen[CPU] {
		specs = append(specs, newSpec(CPU))
	}
	return specs, nil
}
