// Package session owns the lifecycle of one loaded inference model: backend
// resolution, engine session construction, input validation, and the
// bidirectional marshalling between generic values and native tensors.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/example/go-onnx-session/internal/provider"
	"github.com/example/go-onnx-session/internal/tensor"
)

// Config carries the load-time knobs for a session.
type Config struct {
	// Providers lists requested execution backend names, in preference
	// order. Nil or empty picks the platform default ordering.
	Providers []string

	// LibraryPath overrides the ONNX Runtime shared library path. If empty,
	// the environment and well-known system locations are searched.
	LibraryPath string

	// APIVersion selects the ORT C API version (0 means the binding default).
	APIVersion uint32

	IntraOpThreads int
	InterOpThreads int

	// Engine substitutes the native runtime; nil uses ONNX Runtime.
	Engine Engine
}

// TensorInfo is the immutable per-tensor metadata reported to callers.
type TensorInfo struct {
	Name  string
	Shape []int64
	DType string
}

// Session is one loaded model. Its declared input/output lists never change
// after Load; they define the contract for every Run call.
type Session struct {
	path      string
	providers []provider.Spec
	engine    EngineSession

	inputs  []NodeInfo
	outputs []NodeInfo

	inputInfoOnce  sync.Once
	inputInfos     []TensorInfo
	outputInfoOnce sync.Once
	outputInfos    []TensorInfo

	closeOnce sync.Once
}

// Load resolves the execution backends, builds the engine session, and
// captures the model's declared tensor metadata. It either fully succeeds or
// returns no session.
func Load(path string, cfg Config) (*Session, error) {
	runtimeInfo := ensureInitialized(cfg.LibraryPath)

	specs, err := provider.Resolve(cfg.Providers)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}

	engine := cfg.Engine
	if engine == nil {
		engine = defaultEngine()
	}

	libraryPath := cfg.LibraryPath
	if libraryPath == "" {
		libraryPath = runtimeInfo.LibraryPath
	}

	engineSession, err := engine.Open(path, EngineOptions{
		LibraryPath:    libraryPath,
		APIVersion:     cfg.APIVersion,
		IntraOpThreads: cfg.IntraOpThreads,
		InterOpThreads: cfg.InterOpThreads,
		Providers:      specs,
	})
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}

	inputs, err := engineSession.Inputs()
	if err != nil {
		engineSession.Close()
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("query input metadata: %w", err)}
	}

	outputs, err := engineSession.Outputs()
	if err != nil {
		engineSession.Close()
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("query output metadata: %w", err)}
	}

	s := &Session{
		path:      path,
		providers: specs,
		engine:    engineSession,
		inputs:    normalizeNodes(inputs),
		outputs:   normalizeNodes(outputs),
	}

	slog.Info(
		"loaded model",
		"path", path,
		"inputs", nodeNames(s.inputs),
		"outputs", nodeNames(s.outputs),
		"providers", providerNames(specs),
	)

	return s, nil
}

// normalizeNodes records a single dynamic dimension for any tensor whose
// static shape the engine could not report.
func normalizeNodes(nodes []NodeInfo) []NodeInfo {
	out := make([]NodeInfo, len(nodes))
	for i, node := range nodes {
		if len(node.Shape) == 0 {
			node.Shape = []int64{tensor.DynamicDim}
		} else {
			node.Shape = append([]int64(nil), node.Shape...)
		}
		out[i] = node
	}
	return out
}

// Path returns the model file the session was loaded from.
func (s *Session) Path() string {
	return s.path
}

// Providers returns the resolved backend list. It is informational: the
// engine reports its own runtime provider usage, which may differ.
func (s *Session) Providers() []provider.Spec {
	return append([]provider.Spec(nil), s.providers...)
}

// Inputs returns metadata for the model's declared inputs, in engine order.
// The result is computed once and cached for the session's lifetime.
func (s *Session) Inputs() []TensorInfo {
	s.inputInfoOnce.Do(func() {
		s.inputInfos = toTensorInfos(s.inputs)
	})
	return append([]TensorInfo(nil), s.inputInfos...)
}

// Outputs returns metadata for the model's declared outputs, in engine order.
func (s *Session) Outputs() []TensorInfo {
	s.outputInfoOnce.Do(func() {
		s.outputInfos = toTensorInfos(s.outputs)
	})
	return append([]TensorInfo(nil), s.outputInfos...)
}

func toTensorInfos(nodes []NodeInfo) []TensorInfo {
	infos := make([]TensorInfo, len(nodes))
	for i, node := range nodes {
		infos[i] = TensorInfo{
			Name:  node.Name,
			Shape: append([]int64(nil), node.Shape...),
			DType: node.DType,
		}
	}
	return infos
}

// Run executes one inference call. Validation, encoding, execution, and
// decoding run in order; the first failing step aborts the rest.
func (s *Session) Run(ctx context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error) {
	if err := s.validateSelf(); err != nil {
		return nil, err
	}

	if err := validateInputs(s.inputs, inputs); err != nil {
		return nil, err
	}

	encoded, err := encodeInputs(s.inputs, inputs)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Run(ctx, encoded)
	if err != nil {
		var conversionErr *DataConversionError
		if errors.As(err, &conversionErr) {
			return nil, conversionErr
		}
		return nil, &InferenceError{Err: err}
	}

	return decodeOutputs(s.outputs, results)
}

// validateSelf guards against a session value that was never built by Load.
func (s *Session) validateSelf() error {
	if s.path == "" {
		return &ValidationError{Reason: "session has no model path"}
	}
	if len(s.inputs) == 0 {
		return &ValidationError{Reason: "session declares no inputs"}
	}
	if len(s.outputs) == 0 {
		return &ValidationError{Reason: "session declares no outputs"}
	}
	if s.engine == nil {
		return &ValidationError{Reason: "session has no engine"}
	}
	return nil
}

// Close releases the engine session. Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.engine != nil {
			s.engine.Close()
		}
	})
}

func nodeNames(nodes []NodeInfo) []string {
	names := make([]string, len(nodes))
	for i, node := range nodes {
		names[i] = node.Name
	}
	return names
}

func providerNames(specs []provider.Spec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Kind.String()
	}
	return names
}
