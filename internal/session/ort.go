package session

import (
	"context"
	"fmt"

	ort "github.com/benedoc-inc/onnxer/onnxruntime"

	"github.com/example/go-onnx-session/internal/provider"
	"github.com/example/go-onnx-session/internal/tensor"
)

// ortEngine is the production Engine backed by ONNX Runtime through the
// onnxer purego binding.
type ortEngine struct{}

func defaultEngine() Engine {
	return ortEngine{}
}

func (ortEngine) Open(path string, opts EngineOptions) (EngineSession, error) {
	logLevel := ort.LoggingLevelWarning
	model, err := ort.LoadModelFromFile(path, &ort.ModelConfig{
		LibraryPath:    opts.LibraryPath,
		APIVersion:     opts.APIVersion,
		LogLevel:       &logLevel,
		SessionOptions: sessionOptions(opts),
	})
	if err != nil {
		return nil, err
	}

	return &ortSession{model: model}, nil
}

// sessionOptions translates the resolved provider list into engine session
// options. CPU needs no appender: it is the engine's built-in fallback.
func sessionOptions(opts EngineOptions) *ort.SessionOptions {
	so := &ort.SessionOptions{
		IntraOpNumThreads: opts.IntraOpThreads,
		InterOpNumThreads: opts.InterOpThreads,
	}
	for _, spec := range opts.Providers {
		if spec.Kind == provider.CPU {
			continue
		}
		so.ExecutionProviders = append(so.ExecutionProviders, ort.ExecutionProvider{
			Name:    spec.Kind.EngineName(),
			Options: spec.Options,
		})
	}
	return so
}

type ortSession struct {
	model *ort.Model
}

func (s *ortSession) Inputs() ([]NodeInfo, error) {
	infos, err := s.model.Session().GetInputInfo()
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeInfo, len(infos))
	for i, info := range infos {
		nodes[i] = nodeFromTypeInfo(info.Name, info.TensorInfo)
	}
	return nodes, nil
}

func (s *ortSession) Outputs() ([]NodeInfo, error) {
	infos, err := s.model.Session().GetOutputInfo()
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeInfo, len(infos))
	for i, info := range infos {
		nodes[i] = nodeFromTypeInfo(info.Name, info.TensorInfo)
	}
	return nodes, nil
}

func nodeFromTypeInfo(name string, info *ort.TensorTypeInfo) NodeInfo {
	node := NodeInfo{Name: name}
	if info == nil {
		return node
	}
	node.DType = dtypeTag(info.ElementType)
	node.Shape = append([]int64(nil), info.Shape...)
	return node
}

func dtypeTag(elementType ort.ONNXTensorElementDataType) string {
	switch elementType {
	case ort.ONNXTensorElementDataTypeFloat:
		return string(tensor.DTypeFloat32)
	case ort.ONNXTensorElementDataTypeDouble:
		return string(tensor.DTypeFloat64)
	case ort.ONNXTensorElementDataTypeInt32:
		return string(tensor.DTypeInt32)
	case ort.ONNXTensorElementDataTypeInt64:
		return string(tensor.DTypeInt64)
	case ort.ONNXTensorElementDataTypeString:
		return string(tensor.DTypeString)
	default:
		return fmt.Sprintf("type(%d)", int32(elementType))
	}
}

func (s *ortSession) Run(ctx context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error) {
	ortInputs := make(map[string]*ort.Value, len(inputs))
	for name, value := range inputs {
		v, err := valueToORT(s.model.Runtime(), value)
		if err != nil {
			closeORTValues(ortInputs)
			return nil, fmt.Errorf("input %q: %w", name, err)
		}

		ortInputs[name] = v
	}

	defer closeORTValues(ortInputs)

	ortOutputs, err := s.model.Run(ctx, ortInputs)
	if err != nil {
		return nil, err
	}
	defer closeORTValues(ortOutputs)

	results := make(map[string]*tensor.Value, len(ortOutputs))
	for name, v := range ortOutputs {
		value, err := ortToValue(name, v)
		if err != nil {
			return nil, err
		}

		results[name] = value
	}

	return results, nil
}

func (s *ortSession) Close() {
	if s.model != nil {
		s.model.Close()
		s.model = nil
	}
}

func valueToORT(runtime *ort.Runtime, value *tensor.Value) (*ort.Value, error) {
	if value.IsText() {
		return runtime.NewStringTensorValue(value.Strings(), value.Shape())
	}

	data, err := value.Float32s()
	if err != nil {
		return nil, err
	}
	return ort.NewTensorValue(runtime, data, value.Shape())
}

// ortToValue extracts an engine output as float32 first, then float64. Any
// other element type is unsupported on the decode path.
func ortToValue(name string, v *ort.Value) (*tensor.Value, error) {
	if data, shape, err := ort.GetTensorData[float32](v); err == nil {
		return tensor.NewNumeric(data, shape)
	}

	if data, shape, err := ort.GetTensorData[float64](v); err == nil {
		return tensor.NewNumeric(data, shape)
	}

	elementType, err := v.GetTensorElementType()
	if err != nil {
		return nil, &DataConversionError{Name: name, Reason: err.Error()}
	}
	return nil, &DataConversionError{
		Name:   name,
		Reason: fmt.Sprintf("unsupported output element type %s", dtypeTag(elementType)),
	}
}

func closeORTValues(vals map[string]*ort.Value) {
	for _, v := range vals {
		if v != nil {
			v.Close()
		}
	}
}
