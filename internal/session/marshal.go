package session

import (
	"fmt"

	"github.com/example/go-onnx-session/internal/tensor"
)

// encodeInputs converts the validated caller bag into the normalized form
// handed to the engine: text values become string tensors of shape [n],
// numeric values are flattened against their effective shape and cast to
// float32, the canonical wire type.
func encodeInputs(declared []NodeInfo, provided map[string]*tensor.Value) (map[string]*tensor.Value, error) {
	encoded := make(map[string]*tensor.Value, len(provided))
	for _, node := range declared {
		value := provided[node.Name]
		if value == nil {
			return nil, &DataConversionError{Name: node.Name, Reason: "nil value"}
		}

		if value.IsText() {
			encoded[node.Name] = tensor.NewText(value.Strings())
			continue
		}

		shape := effectiveShape(node.Shape, value.Shape())
		count, err := tensor.ElementCount(shape)
		if err != nil {
			return nil, &DataConversionError{Name: node.Name, Reason: err.Error()}
		}
		if count != value.Len() {
			return nil, &DataConversionError{
				Name:   node.Name,
				Reason: fmt.Sprintf("shape %v expects %d elements, got %d", shape, count, value.Len()),
			}
		}

		data, err := value.AsFloat32()
		if err != nil {
			return nil, &DataConversionError{Name: node.Name, Reason: err.Error()}
		}

		wire, err := tensor.NewNumeric(data, shape)
		if err != nil {
			return nil, &DataConversionError{Name: node.Name, Reason: err.Error()}
		}
		encoded[node.Name] = wire
	}

	return encoded, nil
}

// effectiveShape picks the shape used to interpret a flat buffer: the
// model's declared shape when it is fully static, otherwise the shape the
// caller's value reports about itself. A dynamic dimension surviving in an
// otherwise usable declared shape is coerced to 1.
func effectiveShape(declared, actual []int64) []int64 {
	if !tensor.IsStatic(declared) {
		return append([]int64(nil), actual...)
	}

	shape := append([]int64(nil), declared...)
	for i, dim := range shape {
		if dim == tensor.DynamicDim {
			shape[i] = 1
		}
	}
	return shape
}

// decodeOutputs walks the session's declared output names in order and
// converts each engine result to the caller representation. Numeric output
// is widened to float64 regardless of whether the engine produced float32 or
// float64, so round-tripping through the system is precision-widening.
func decodeOutputs(declared []NodeInfo, results map[string]*tensor.Value) (map[string]*tensor.Value, error) {
	decoded := make(map[string]*tensor.Value, len(declared))
	for _, node := range declared {
		value, ok := results[node.Name]
		if !ok || value == nil {
			return nil, &InferenceError{Name: node.Name}
		}

		switch value.DType() {
		case tensor.DTypeFloat32, tensor.DTypeFloat64:
		default:
			return nil, &DataConversionError{
				Name:   node.Name,
				Reason: fmt.Sprintf("unsupported output dtype %s", value.DType()),
			}
		}

		data, err := value.AsFloat64()
		if err != nil {
			return nil, &DataConversionError{Name: node.Name, Reason: err.Error()}
		}

		wide, err := tensor.NewNumeric(data, value.Shape())
		if err != nil {
			return nil, &DataConversionError{Name: node.Name, Reason: err.Error()}
		}
		decoded[node.Name] = wide
	}

	return decoded, nil
}
