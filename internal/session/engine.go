package session

import (
	"context"

	"github.com/example/go-onnx-session/internal/provider"
	"github.com/example/go-onnx-session/internal/tensor"
)

// NodeInfo describes one declared model input or output as reported by the
// engine. A shape dimension of tensor.DynamicDim is only known at inference
// time.
type NodeInfo struct {
	Name  string
	DType string
	Shape []int64
}

// EngineOptions carries everything an engine needs to build a session.
type EngineOptions struct {
	LibraryPath    string
	APIVersion     uint32
	IntraOpThreads int
	InterOpThreads int
	Providers      []provider.Spec
}

// Engine abstracts the native inference runtime. The production
// implementation wraps ONNX Runtime; tests substitute fakes.
type Engine interface {
	Open(path string, opts EngineOptions) (EngineSession, error)
}

// EngineSession is one loaded model inside the engine. Inputs handed to Run
// are already normalized (float32 numeric or text); outputs come back as
// float32 or float64 values carrying the runtime-reported shape.
type EngineSession interface {
	Inputs() ([]NodeInfo, error)
	Outputs() ([]NodeInfo, error)
	Run(ctx context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error)
	Close()
}
